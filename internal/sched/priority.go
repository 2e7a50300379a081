package sched

import (
	"fmt"
	"math"
)

var tierBase = [...]int{
	PriorityIdle:     100,
	PriorityLow:      200,
	PriorityMedium:   300,
	PriorityHigh:     400,
	PriorityRealtime: 1000,
}

// TierBase is the dynamic priority of a task of tier p that has not aged.
func TierBase(p Priority) int {
	if int(p) >= len(tierBase) {
		return tierBase[PriorityIdle]
	}
	return tierBase[p]
}

// Aging is the linear, saturating age bonus: min(age*Step, Cap).
type Aging struct {
	Step int
	Cap  int
}

// DefaultAging lets an IDLE task overtake a fresh HIGH task after 31 passes
// while keeping HIGH+Cap below the realtime floor.
var DefaultAging = Aging{Step: 10, Cap: 350}

// Validate rejects configurations that allow unbounded starvation or let a
// non-realtime task reach the realtime tier.
func (a Aging) Validate() error {
	if a.Step <= 0 {
		return fmt.Errorf("%w: step=%d", ErrInvalidAging, a.Step)
	}
	if a.Cap < 0 {
		return fmt.Errorf("%w: cap=%d", ErrInvalidAging, a.Cap)
	}
	if TierBase(PriorityHigh)+a.Cap >= TierBase(PriorityRealtime) {
		return fmt.Errorf("%w: high(%d)+cap(%d) >= realtime(%d)",
			ErrAgingOverlap, TierBase(PriorityHigh), a.Cap, TierBase(PriorityRealtime))
	}
	return nil
}

// Bonus returns the age bonus for ageCycles.
func (a Aging) Bonus(ageCycles uint32) int {
	b := int64(ageCycles) * int64(a.Step)
	if b > int64(a.Cap) {
		return a.Cap
	}
	return int(b)
}

// Dynamic returns the selection priority of a tier-p task aged ageCycles.
// Realtime tasks never age.
func (a Aging) Dynamic(p Priority, ageCycles uint32) int {
	if p == PriorityRealtime {
		return TierBase(p)
	}
	return TierBase(p) + a.Bonus(ageCycles)
}

// SaturationAge is the smallest age at which the bonus reaches Cap.
func (a Aging) SaturationAge() uint32 {
	if a.Step <= 0 {
		return math.MaxUint32
	}
	return uint32((a.Cap + a.Step - 1) / a.Step)
}
