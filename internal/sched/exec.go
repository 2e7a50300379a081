package sched

import (
	"fmt"
	"time"

	"fcsched/internal/eventbus"
	logx "fcsched/pkg/logx"
)

// execute runs st and computes its next deadline:
//   - After(d): start+d, for this cycle only
//   - otherwise: start+period, clamped to the end of execution if already past
func (s *Scheduler) execute(st *taskState) time.Duration {
	s.queue.remove(st)
	st.running = true
	s.current = st.desc.ID

	start := s.clock.Now()
	if late := start - st.nextExecuteAt; late > st.stats.maxLateness {
		st.stats.maxLateness = late
	}
	st.lastExecutedAt = start

	res := s.runBody(st, start)

	end := s.clock.Now()
	st.running = false
	s.current = NoTask

	took := end - start
	st.account(took)
	s.busy += took
	if st.period > 0 && took > st.period {
		st.stats.overruns++
		s.overrun(st, took)
	}

	if !st.enabled {
		return took
	}
	var next time.Duration
	if d, ok := res.Override(); ok {
		next = start + d
	} else {
		next = start + st.period
		if next < end {
			next = end
		}
	}
	if st.reenabled {
		next = end
		st.reenabled = false
	}
	st.nextExecuteAt = next
	s.queue.push(st)
	return took
}

// runBody isolates the loop from a panicking task; the task is rescheduled nominally.
func (s *Scheduler) runBody(st *taskState, start time.Duration) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			st.stats.panics++
			s.log.Error("task panic",
				logx.String("task", st.desc.Name),
				logx.String("panic", fmt.Sprint(r)),
				logx.Stack(logx.StackTrace(3, 24)),
			)
			res = Nominal()
		}
	}()
	return st.desc.Run(start)
}

// runCheck treats a panicking check as false.
func (s *Scheduler) runCheck(st *taskState, now time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			st.stats.panics++
			s.log.Error("task check panic",
				logx.String("task", st.desc.Name),
				logx.String("panic", fmt.Sprint(r)),
				logx.Stack(logx.StackTrace(3, 24)),
			)
			ok = false
		}
	}()
	return st.desc.Check(now)
}

func (s *Scheduler) overrun(st *taskState, took time.Duration) {
	s.emit(eventbus.TypeTaskOverrun, eventbus.TaskOverrun{
		Task:     st.desc.Name,
		Took:     took,
		Period:   st.period,
		Overruns: st.stats.overruns,
	})
	if st.desc.Priority != PriorityRealtime {
		return
	}
	if !s.overrunWarn.Allow() {
		return
	}
	fields := []logx.Field{
		logx.String("task", st.desc.Name),
		logx.Micros("took_us", took),
		logx.Micros("period_us", st.period),
		logx.Uint64("overruns", st.stats.overruns),
	}
	if n := s.overrunWarn.Suppressed(); n > 0 {
		fields = append(fields, logx.Uint64("suppressed", n))
	}
	s.log.Warn("realtime task overrun", fields...)
}
