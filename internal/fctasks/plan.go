package fctasks

import (
	"time"

	"fcsched/internal/sched"
)

// Plan is the resolved enable set and periods for every task.
type Plan struct {
	Enabled [Count]bool
	Periods [Count]time.Duration
}

// NewPlan resolves s into a Plan.
func NewPlan(s Settings) Plan {
	var p Plan
	for _, e := range entries {
		p.Periods[e.id] = e.period
	}
	if s.Looptime > 0 {
		p.Periods[PID] = s.Looptime
	}
	if s.GyroLooptime > 0 {
		p.Periods[Gyro] = s.GyroLooptime
	}
	if s.Build.MagMPU9250 {
		p.Periods[Compass] = sched.PeriodHz(40)
	}

	f, sn := s.Features, s.Sensors
	want := map[sched.TaskID]bool{
		System:          true,
		PID:             true,
		Gyro:            true,
		Aux:             true,
		Serial:          true,
		Beeper:          true,
		Lights:          true,
		Battery:         f.VBAT || f.CurrentMeter,
		Temperature:     true,
		RX:              true,
		GPS:             f.GPS,
		Compass:         sn.Mag,
		Baro:            sn.Baro,
		Pitot:           sn.Pitot,
		Rangefinder:     sn.Rangefinder,
		Dashboard:       f.Dashboard,
		Telemetry:       f.Telemetry,
		LEDStrip:        f.LEDStrip,
		StackCheck:      true,
		Servos:          s.ServoProtocol == ServoSBUS || s.ServoProtocol == ServoSBUSPWM,
		CMS:             s.Build.MSPDisplayport || f.OSD || f.Dashboard,
		OpFlow:          sn.OpFlow,
		VTXCtrl:         true,
		RCDevice:        s.RCDevice,
		Programming:     true,
		IRLock:          sn.IRLock,
		SmartportMaster: true,
		OSD:             f.OSD,
		RPM:             s.RPMFilter,
	}
	for _, e := range entries {
		p.Enabled[e.id] = want[e.id] && e.compiled(s.Build)
	}
	return p
}

func (p Plan) Period(id sched.TaskID) time.Duration {
	if id < 0 || int(id) >= Count {
		return 0
	}
	return p.Periods[id]
}

// EnabledNames lists the enabled tasks in table order.
func (p Plan) EnabledNames() []string {
	var out []string
	for _, e := range entries {
		if p.Enabled[e.id] {
			out = append(out, e.name)
		}
	}
	return out
}

// Apply configures s directly. Call it before Start or from the loop goroutine.
func Apply(s *sched.Scheduler, p Plan) error {
	for _, op := range p.ops(nil) {
		if err := op(s); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile returns the operations that move a running scheduler from old to
// next. Build flags are fixed at start, so next.Build is ignored.
func Reconcile(old, next Settings) []sched.Op {
	next.Build = old.Build
	prev := NewPlan(old)
	return NewPlan(next).ops(&prev)
}

// ops lists period changes before enables so a newly enabled task starts
// with its planned period. With prev set only differences are returned.
func (p Plan) ops(prev *Plan) []sched.Op {
	var out []sched.Op
	for id := sched.TaskID(0); int(id) < Count; id++ {
		if prev == nil || prev.Periods[id] != p.Periods[id] {
			out = append(out, sched.PeriodOp(id, p.Periods[id]))
		}
	}
	for id := sched.TaskID(0); int(id) < Count; id++ {
		if prev == nil || prev.Enabled[id] != p.Enabled[id] {
			out = append(out, sched.EnableOp(id, p.Enabled[id]))
		}
	}
	return out
}
