package fctasks

import (
	"time"

	"fcsched/internal/sched"
)

// DefaultGyroLooptime is the gyro task period before Init overrides it.
const DefaultGyroLooptime = 1000 * time.Microsecond

// RPMFilterRateHz and AuxRateHz are the fixed rates of the RPM and AUX tasks.
const (
	RPMFilterRateHz = 300
	AuxRateHz       = 100
)

type entry struct {
	id       sched.TaskID
	name     string
	period   time.Duration
	priority sched.Priority
	compiled func(Build) bool
}

func always(Build) bool { return true }

var entries = []entry{
	{System, "SYSTEM", sched.PeriodHz(10), sched.PriorityHigh, always},
	{PID, "PID", 1000 * time.Microsecond, sched.PriorityRealtime, always},
	{Gyro, "GYRO", DefaultGyroLooptime, sched.PriorityRealtime, always},
	{Serial, "SERIAL", sched.PeriodHz(100), sched.PriorityLow, always},
	{Beeper, "BEEPER", sched.PeriodHz(100), sched.PriorityMedium, func(b Build) bool { return b.Beeper }},
	{Lights, "LIGHTS", sched.PeriodHz(100), sched.PriorityLow, func(b Build) bool { return b.Lights }},
	{Battery, "BATTERY", sched.PeriodHz(50), sched.PriorityMedium, always},
	{Temperature, "TEMPERATURE", sched.PeriodHz(100), sched.PriorityLow, always},
	{RX, "RX", sched.PeriodHz(10), sched.PriorityHigh, always},
	{GPS, "GPS", sched.PeriodHz(50), sched.PriorityMedium, func(b Build) bool { return b.GPS }},
	{Compass, "COMPASS", sched.PeriodHz(10), sched.PriorityMedium, func(b Build) bool { return b.Mag }},
	{Baro, "BARO", sched.PeriodHz(20), sched.PriorityMedium, func(b Build) bool { return b.Baro }},
	{Pitot, "PITOT", sched.PeriodHz(100), sched.PriorityMedium, func(b Build) bool { return b.Pitot }},
	{Rangefinder, "RANGEFINDER", 70 * time.Millisecond, sched.PriorityMedium, func(b Build) bool { return b.Rangefinder }},
	{IRLock, "IRLOCK", sched.PeriodHz(100), sched.PriorityMedium, func(b Build) bool { return b.IRLock }},
	{Dashboard, "DASHBOARD", sched.PeriodHz(10), sched.PriorityLow, func(b Build) bool { return b.Dashboard }},
	{Telemetry, "TELEMETRY", sched.PeriodHz(500), sched.PriorityIdle, func(b Build) bool { return b.Telemetry }},
	{SmartportMaster, "SPORT MASTER", sched.PeriodHz(500), sched.PriorityIdle, func(b Build) bool { return b.SmartportMaster }},
	{LEDStrip, "LEDSTRIP", sched.PeriodHz(100), sched.PriorityIdle, func(b Build) bool { return b.LEDStrip }},
	{Servos, "SERVOS", sched.PeriodHz(200), sched.PriorityHigh, func(b Build) bool { return b.ServoSBUS }},
	{StackCheck, "STACKCHECK", sched.PeriodHz(10), sched.PriorityIdle, func(b Build) bool { return b.StackCheck }},
	{OSD, "OSD", sched.PeriodHz(250), sched.PriorityLow, func(b Build) bool { return b.OSD }},
	{CMS, "CMS", sched.PeriodHz(50), sched.PriorityLow, func(b Build) bool { return b.CMS }},
	{OpFlow, "OPFLOW", sched.PeriodHz(100), sched.PriorityMedium, func(b Build) bool { return b.OpFlow }},
	{RCDevice, "RCDEVICE", sched.PeriodHz(10), sched.PriorityMedium, func(b Build) bool { return b.RCDevice }},
	{VTXCtrl, "VTXCTRL", sched.PeriodHz(5), sched.PriorityIdle, func(b Build) bool { return b.VTXControl }},
	{Programming, "PROGRAMMING", sched.PeriodHz(10), sched.PriorityIdle, func(b Build) bool { return b.Programming }},
	{RPM, "RPM", sched.PeriodHz(RPMFilterRateHz), sched.PriorityLow, func(b Build) bool { return b.RPMFilter }},
	{Aux, "AUX", sched.PeriodHz(AuxRateHz), sched.PriorityHigh, always},
}

// Updater is a periodic task body.
type Updater interface {
	Update(now time.Duration)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(now time.Duration)

func (f UpdaterFunc) Update(now time.Duration) { f(now) }

// DeadlineUpdater is a task body that may ask to run again after a specific
// delay, e.g. a sensor waiting for a conversion. Zero keeps the nominal period.
type DeadlineUpdater interface {
	UpdateDeadline(now time.Duration) time.Duration
}

// EventSource is an event-driven body: it runs when Pending reports new input
// or, failing that, at its fallback period.
type EventSource interface {
	Updater
	Pending(now time.Duration) bool
}

// Bodies supplies the task bodies. Tasks without a body run a no-op.
type Bodies struct {
	Periodic    map[sched.TaskID]Updater
	Baro        DeadlineUpdater
	Rangefinder DeadlineUpdater
	RX          EventSource
}

// NewTable builds the scheduler table for the given bodies.
func NewTable(b Bodies) (*sched.Table, error) {
	descs := make([]sched.Descriptor, 0, len(entries))
	for _, e := range entries {
		d := sched.Descriptor{
			ID:       e.id,
			Name:     e.name,
			Period:   e.period,
			Priority: e.priority,
			Run:      periodic(b.Periodic[e.id]),
		}
		switch e.id {
		case Baro:
			d.Run = deadline(b.Baro)
		case Rangefinder:
			d.Run = deadline(b.Rangefinder)
		case RX:
			if b.RX != nil {
				d.Run = periodic(b.RX)
				d.Check = b.RX.Pending
			}
		}
		descs = append(descs, d)
	}
	return sched.NewTable(Count, descs...)
}

func periodic(u Updater) sched.RunFunc {
	if u == nil {
		return func(time.Duration) sched.Result { return sched.Nominal() }
	}
	return func(now time.Duration) sched.Result {
		u.Update(now)
		return sched.Nominal()
	}
}

func deadline(u DeadlineUpdater) sched.RunFunc {
	if u == nil {
		return periodic(nil)
	}
	return func(now time.Duration) sched.Result {
		if d := u.UpdateDeadline(now); d > 0 {
			return sched.After(d)
		}
		return sched.Nominal()
	}
}

// Info describes one table entry for listings.
type Info struct {
	ID       sched.TaskID `json:"id"`
	Name     string       `json:"name"`
	Period   string       `json:"period"`
	Priority string       `json:"priority"`
	Compiled bool         `json:"compiled"`
	Enabled  bool         `json:"enabled"`
}

// Describe lists the table as planned for s.
func Describe(s Settings) []Info {
	p := NewPlan(s)
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, Info{
			ID:       e.id,
			Name:     e.name,
			Period:   p.Period(e.id).String(),
			Priority: e.priority.String(),
			Compiled: e.compiled(s.Build),
			Enabled:  p.Enabled[e.id],
		})
	}
	return out
}

// Name returns the task name for id.
func Name(id sched.TaskID) string {
	if id < 0 || int(id) >= len(entries) {
		return ""
	}
	return entries[id].name
}
