package logx

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Throttle gates log lines emitted from hot paths.
//
// Allow is cheap and never blocks. Suppressed lines are counted and the count
// is reported (and reset) by the next allowed line via Suppressed.
type Throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// NewThrottle allows perSec lines per second with a burst of the same size.
// perSec <= 0 disables throttling.
func NewThrottle(perSec float64) *Throttle {
	t := &Throttle{}
	t.SetRate(perSec)
	return t
}

// SetRate replaces the limiter. Safe to call concurrently with Allow.
func (t *Throttle) SetRate(perSec float64) {
	var lim *rate.Limiter
	if perSec > 0 {
		burst := int(perSec)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(perSec), burst)
	}
	t.mu.Lock()
	t.limiter = lim
	t.mu.Unlock()
}

func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	lim := t.limiter
	t.mu.Unlock()
	if lim == nil || lim.Allow() {
		return true
	}
	t.dropped.Add(1)
	return false
}

// Suppressed returns the number of lines dropped since the previous call.
func (t *Throttle) Suppressed() uint64 {
	if t == nil {
		return 0
	}
	return t.dropped.Swap(0)
}
