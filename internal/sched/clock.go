package sched

import (
	"sync/atomic"
	"time"
)

// Clock reports monotonic uptime.
type Clock interface {
	Now() time.Duration
}

// Advancer is a Clock whose time is driven by the caller.
type Advancer interface {
	Clock
	AdvanceTo(t time.Duration)
}

// MonotonicClock measures uptime from its creation using the runtime's
// monotonic clock.
type MonotonicClock struct {
	epoch time.Time
}

func NewMonotonicClock() *MonotonicClock { return &MonotonicClock{epoch: time.Now()} }

func (c *MonotonicClock) Now() time.Duration { return time.Since(c.epoch) }

// Epoch returns the wall time at uptime zero.
func (c *MonotonicClock) Epoch() time.Time { return c.epoch }

// SimClock is a manually advanced clock. It never goes backwards.
type SimClock struct {
	now atomic.Int64
}

func NewSimClock(start time.Duration) *SimClock {
	c := &SimClock{}
	c.now.Store(int64(start))
	return c
}

func (c *SimClock) Now() time.Duration { return time.Duration(c.now.Load()) }

// Advance moves the clock forward by d. Negative d is ignored.
func (c *SimClock) Advance(d time.Duration) {
	if d > 0 {
		c.now.Add(int64(d))
	}
}

// AdvanceTo moves the clock to t if t is in the future.
func (c *SimClock) AdvanceTo(t time.Duration) {
	for {
		cur := c.now.Load()
		if int64(t) <= cur || c.now.CompareAndSwap(cur, int64(t)) {
			return
		}
	}
}
