package sched

import (
	"fmt"
	"strings"
	"time"
)

// TaskID is a dense index into the task table.
type TaskID int

// NoTask is reported when a pass selected nothing.
const NoTask TaskID = -1

// Priority is a static priority tier.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityRealtime
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "IDLE"
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityRealtime:
		return "REALTIME"
	default:
		return fmt.Sprintf("PRIORITY(%d)", uint8(p))
	}
}

// ParsePriority is the inverse of Priority.String (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IDLE":
		return PriorityIdle, nil
	case "LOW":
		return PriorityLow, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "HIGH":
		return PriorityHigh, nil
	case "REALTIME":
		return PriorityRealtime, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// RunFunc is a task body. now is the scheduler uptime at which the task was started.
type RunFunc func(now time.Duration) Result

// CheckFunc is an optional admission predicate. It must be cheap and must not block.
type CheckFunc func(now time.Duration) bool

// Descriptor is the static description of one task.
type Descriptor struct {
	ID       TaskID
	Name     string
	Run      RunFunc
	Check    CheckFunc
	Period   time.Duration // zero for purely event-driven tasks
	Priority Priority
}

// Result is returned by a task body to choose how its next deadline is computed.
type Result struct {
	after    time.Duration
	override bool
}

// Nominal keeps the fixed-period cadence.
func Nominal() Result { return Result{} }

// After requests the next run d after this run's start, for one cycle only.
func After(d time.Duration) Result {
	if d < 0 {
		d = 0
	}
	return Result{after: d, override: true}
}

// Override reports the one-shot delay, if any.
func (r Result) Override() (time.Duration, bool) { return r.after, r.override }

// PeriodHz converts a rate into a period. Non-positive rates yield zero.
func PeriodHz(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}
