package sched

import (
	"errors"
	"time"

	logx "fcsched/pkg/logx"
)

// Op is a control operation applied by the loop goroutine at the start of a pass.
type Op func(s *Scheduler) error

// EnableOp posts SetEnabled.
func EnableOp(id TaskID, enabled bool) Op {
	return func(s *Scheduler) error { return s.SetEnabled(id, enabled) }
}

// PeriodOp posts SetPeriod.
func PeriodOp(id TaskID, period time.Duration) Op {
	return func(s *Scheduler) error { return s.SetPeriod(id, period) }
}

// AgingOp posts SetAging.
func AgingOp(a Aging) Op {
	return func(s *Scheduler) error { return s.SetAging(a) }
}

// BatchOp applies ops in order within one pass. All ops run; their errors are joined.
func BatchOp(ops ...Op) Op {
	return func(s *Scheduler) error {
		var errs []error
		for _, op := range ops {
			if op == nil {
				continue
			}
			if err := op(s); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Post queues op for the loop goroutine without blocking. Safe to call from
// any goroutine.
func (s *Scheduler) Post(op Op) error {
	if op == nil {
		return nil
	}
	select {
	case s.ops <- op:
	default:
		return ErrQueueFull
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) drainOps() {
	for {
		select {
		case op := <-s.ops:
			if err := op(s); err != nil {
				s.log.Warn("control op failed", logx.Err(err))
			}
		default:
			return
		}
	}
}
