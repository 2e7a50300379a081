package sched

import (
	"math"
	"time"
)

// PassResult describes one scheduler pass.
type PassResult struct {
	Task TaskID        // NoTask on an idle pass
	Now  time.Duration // time the pass evaluated eligibility
	Took time.Duration // execution time of Task
	Wake time.Duration // idle passes: when the next pass is useful
}

func (r PassResult) Idle() bool { return r.Task == NoTask }

// Pass applies posted control operations, selects the eligible task with the
// highest dynamic priority (smallest id on ties), runs it and reschedules it.
// The first Pass starts the scheduler if Start was not called.
func (s *Scheduler) Pass() PassResult {
	if !s.started {
		s.start()
	}
	s.drainOps()

	now := s.clock.Now()
	best, gated := s.selectTask(now)
	s.passes++

	if best == nil {
		s.idlePasses++
		s.publishSnapshot(now)
		return PassResult{Task: NoTask, Now: now, Wake: s.wakeAt(now, gated)}
	}

	for _, st := range s.eligible {
		if st != best && st.ageCycles < math.MaxUint32 {
			st.ageCycles++
		}
	}
	best.ageCycles = 0

	took := s.execute(best)
	s.publishSnapshot(s.clock.Now())
	return PassResult{Task: best.desc.ID, Now: now, Took: took}
}

// selectTask collects the eligible set into s.eligible and returns the winner.
// gated reports whether some timer-due task was held back by its check.
func (s *Scheduler) selectTask(now time.Duration) (best *taskState, gated bool) {
	s.eligible = s.eligible[:0]
	s.queue.due(now, func(st *taskState) {
		if st.desc.Check != nil {
			t0 := s.clock.Now()
			ok := s.runCheck(st, now)
			ct := s.clock.Now() - t0
			st.stats.checkCalls++
			st.stats.checkTime += ct
			s.busy += ct
			if !ok {
				st.ageCycles = 0
				gated = true
				return
			}
		}
		st.dynamicPriority = s.aging.Dynamic(st.desc.Priority, st.ageCycles)
		s.eligible = append(s.eligible, st)
		if best == nil ||
			st.dynamicPriority > best.dynamicPriority ||
			(st.dynamicPriority == best.dynamicPriority && st.desc.ID < best.desc.ID) {
			best = st
		}
	})
	return best, gated
}

func (s *Scheduler) wakeAt(now time.Duration, gated bool) time.Duration {
	poll := now + s.idleSleep
	next, ok := s.queue.nextAfter(now)
	if !ok || (gated && poll < next) {
		return poll
	}
	return next
}
