// Package sched implements a cooperative, priority-and-deadline driven task
// scheduler for a single control loop.
//
// Each call to Pass selects at most one task, runs it to completion, and
// computes its next deadline. Selection uses the task's static priority tier
// plus a bounded aging bonus, so realtime work always wins while lower tiers
// cannot starve.
//
// A Scheduler is owned by one goroutine: the one calling Pass or Run. Task
// bodies and init code running on that goroutine may call SetEnabled and
// SetPeriod directly. Other goroutines use Post, whose operations are applied
// at the start of the next pass, and Snapshot, which returns a copy published
// at the end of each pass.
package sched
