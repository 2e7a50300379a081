package sched

import "time"

type taskCounters struct {
	executions  uint64
	totalExec   time.Duration
	maxExec     time.Duration
	avgExec     time.Duration
	overruns    uint64
	panics      uint64
	maxLateness time.Duration
	checkCalls  uint64
	checkTime   time.Duration
}

// taskState is the runtime state of one descriptor. Owned by the loop goroutine.
type taskState struct {
	desc   Descriptor
	period time.Duration

	enabled         bool
	dynamicPriority int
	lastExecutedAt  time.Duration
	nextExecuteAt   time.Duration
	ageCycles       uint32

	key       deadlineKey
	queued    bool
	running   bool
	reenabled bool // enabled again while its own body was running

	stats taskCounters
}

// account folds one execution into the statistics. The average is the
// 31/32 exponential moving average, seeded with the first sample.
func (st *taskState) account(took time.Duration) {
	c := &st.stats
	c.executions++
	c.totalExec += took
	if took > c.maxExec {
		c.maxExec = took
	}
	if c.executions == 1 {
		c.avgExec = took
	} else {
		c.avgExec = (c.avgExec*31 + took) / 32
	}
}

func (st *taskState) view() TaskStats {
	return TaskStats{
		ID:                   st.desc.ID,
		Name:                 st.desc.Name,
		Priority:             st.desc.Priority.String(),
		Enabled:              st.enabled,
		Period:               st.period,
		DynamicPriority:      st.dynamicPriority,
		AgeCycles:            st.ageCycles,
		LastExecutedAt:       st.lastExecutedAt,
		NextExecuteAt:        st.nextExecuteAt,
		Executions:           st.stats.executions,
		TotalExecutionTime:   st.stats.totalExec,
		AverageExecutionTime: st.stats.avgExec,
		MaxExecutionTime:     st.stats.maxExec,
		MaxLateness:          st.stats.maxLateness,
		Overruns:             st.stats.overruns,
		Panics:               st.stats.panics,
		CheckCalls:           st.stats.checkCalls,
		CheckTime:            st.stats.checkTime,
	}
}
