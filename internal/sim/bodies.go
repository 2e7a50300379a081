package sim

import (
	"sync/atomic"
	"time"

	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
)

// receiver produces one frame per interval starting at uptime interval.
// Frames not consumed before the next one arrives are dropped, like a serial
// receiver overwriting its buffer.
type receiver struct {
	w        *World
	interval time.Duration
	next     time.Duration
	frames   atomic.Uint64
}

func (r *receiver) Pending(now time.Duration) bool {
	return r.interval > 0 && now >= r.next
}

func (r *receiver) Update(now time.Duration) {
	r.w.spend(fctasks.RX)
	if !r.Pending(now) {
		return
	}
	r.frames.Add(1)
	r.next += r.interval
	if r.next <= now {
		r.next = now + r.interval
	}
}

// converter alternates between starting a conversion, which asks to be run
// again once it completes, and reading the result.
type converter struct {
	w          *World
	id         sched.TaskID
	conversion time.Duration
	converting bool
	readings   atomic.Uint64
}

func (c *converter) UpdateDeadline(time.Duration) time.Duration {
	c.w.spend(c.id)
	if c.conversion <= 0 {
		c.readings.Add(1)
		return 0
	}
	if !c.converting {
		c.converting = true
		return c.conversion
	}
	c.converting = false
	c.readings.Add(1)
	return 0
}
