package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// trace records when each task started, in simulated time.
type trace struct {
	clk  *SimClock
	runs map[TaskID][]time.Duration
}

func newTrace(clk *SimClock) *trace {
	return &trace{clk: clk, runs: map[TaskID][]time.Duration{}}
}

// body returns a RunFunc that records its start, burns cost of simulated time
// and returns Nominal.
func (tr *trace) body(id TaskID, cost time.Duration) RunFunc {
	return func(now time.Duration) Result {
		tr.runs[id] = append(tr.runs[id], now)
		tr.clk.Advance(cost)
		return Nominal()
	}
}

func (tr *trace) count(id TaskID) int { return len(tr.runs[id]) }

func mustScheduler(t *testing.T, clk Clock, descs []Descriptor, opts ...Option) *Scheduler {
	t.Helper()
	tbl, err := NewTable(len(descs), descs...)
	require.NoError(t, err)
	s, err := New(tbl, clk, opts...)
	require.NoError(t, err)
	for _, d := range descs {
		require.NoError(t, s.SetEnabled(d.ID, true))
	}
	return s
}

func ms(n float64) time.Duration { return time.Duration(n * float64(time.Millisecond)) }
