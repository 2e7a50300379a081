package sched

import (
	"strings"
	"time"
)

// Snapshot is a read-only view of the scheduler published at the end of each pass.
type Snapshot struct {
	Started     bool          `json:"started"`
	Uptime      time.Duration `json:"uptime"`
	Passes      uint64        `json:"passes"`
	IdlePasses  uint64        `json:"idle_passes"`
	BusyTime    time.Duration `json:"busy_time"`
	LoadPercent float64       `json:"load_percent"`
	Aging       Aging         `json:"aging"`
	Tasks       []TaskStats   `json:"tasks"`
}

// TaskStats is the per-task part of a Snapshot.
type TaskStats struct {
	ID                   TaskID        `json:"id"`
	Name                 string        `json:"name"`
	Priority             string        `json:"priority"`
	Enabled              bool          `json:"enabled"`
	Period               time.Duration `json:"period"`
	DynamicPriority      int           `json:"dynamic_priority"`
	AgeCycles            uint32        `json:"age_cycles"`
	LastExecutedAt       time.Duration `json:"last_executed_at"`
	NextExecuteAt        time.Duration `json:"next_execute_at"`
	Executions           uint64        `json:"executions"`
	TotalExecutionTime   time.Duration `json:"total_execution_time"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	MaxExecutionTime     time.Duration `json:"max_execution_time"`
	MaxLateness          time.Duration `json:"max_lateness"`
	Overruns             uint64        `json:"overruns"`
	Panics               uint64        `json:"panics"`
	CheckCalls           uint64        `json:"check_calls"`
	CheckTime            time.Duration `json:"check_time"`
}

// Task finds a task by name (case-insensitive).
func (s Snapshot) Task(name string) (TaskStats, bool) {
	for _, t := range s.Tasks {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TaskStats{}, false
}

// Enabled returns the enabled tasks in id order.
func (s Snapshot) Enabled() []TaskStats {
	out := make([]TaskStats, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot returns a copy of the most recently published state.
// Safe to call from any goroutine.
func (s *Scheduler) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	cp := s.snap
	cp.Tasks = append([]TaskStats(nil), s.snap.Tasks...)
	return cp
}

func (s *Scheduler) publishSnapshot(now time.Duration) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	snap := &s.snap
	snap.Started = s.started
	if s.started {
		snap.Uptime = now - s.startedAt
	}
	snap.Passes = s.passes
	snap.IdlePasses = s.idlePasses
	snap.BusyTime = s.busy
	snap.LoadPercent = s.loadPercent
	snap.Aging = s.aging
	if len(snap.Tasks) != len(s.tasks) {
		snap.Tasks = make([]TaskStats, len(s.tasks))
	}
	for i, st := range s.tasks {
		snap.Tasks[i] = st.view()
	}
}
