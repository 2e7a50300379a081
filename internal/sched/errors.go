package sched

import "errors"

var (
	ErrDuplicateTask  = errors.New("sched: duplicate task id")
	ErrMissingTask    = errors.New("sched: missing task id")
	ErrTaskOutOfRange = errors.New("sched: task id out of range")
	ErrNoRunFunc      = errors.New("sched: task has no run func")
	ErrEmptyTable     = errors.New("sched: empty task table")

	ErrUnknownTask   = errors.New("sched: unknown task")
	ErrInvalidPeriod = errors.New("sched: invalid period")
	ErrInvalidAging  = errors.New("sched: invalid aging config")
	ErrAgingOverlap  = errors.New("sched: aging bonus reaches realtime tier")

	ErrAlreadyStarted = errors.New("sched: already started")
	ErrQueueFull      = errors.New("sched: control queue full")
	ErrNotSimulated   = errors.New("sched: clock cannot be advanced")
)
