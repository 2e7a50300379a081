// Package sim provides host-side stand-ins for the flight controller's task
// bodies: a gyro and PID loop with a fixed cost, a receiver producing frames
// at a configured rate, a barometer and rangefinder with conversion delays,
// and a battery monitor. Bodies spend their cost on the scheduler's clock:
// a simulated clock is advanced, a monotonic clock is busy-waited.
package sim

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
)

type Config struct {
	RXFrameRateHz  int
	BaroConversion time.Duration
	// CostScale multiplies every task cost. 0 makes bodies free.
	CostScale float64
	Seed      int64
}

// DefaultConfig matches a typical 50Hz receiver and a 10ms baro conversion.
func DefaultConfig() Config {
	return Config{RXFrameRateHz: 50, BaroConversion: 10 * time.Millisecond, CostScale: 1, Seed: 1}
}

// Base costs in microseconds. Tasks not listed cost baseCostDefault.
var baseCost = map[sched.TaskID]int{
	fctasks.System:    5,
	fctasks.PID:       60,
	fctasks.Gyro:      20,
	fctasks.Serial:    10,
	fctasks.Battery:   10,
	fctasks.RX:        30,
	fctasks.GPS:       25,
	fctasks.Baro:      15,
	fctasks.Telemetry: 15,
	fctasks.OSD:       40,
	fctasks.CMS:       20,
	fctasks.LEDStrip:  12,
	fctasks.RPM:       8,
}

const (
	baseCostDefault    = 5
	rangefinderMeasure = 50 * time.Millisecond
	cellEmptyMV        = 3300
	packFullMV         = 16800
)

// Stats are counters of simulated work.
type Stats struct {
	GyroSamples   uint64  `json:"gyro_samples"`
	PIDUpdates    uint64  `json:"pid_updates"`
	RXFrames      uint64  `json:"rx_frames"`
	BaroReadings  uint64  `json:"baro_readings"`
	RangeReadings uint64  `json:"range_readings"`
	BatteryMV     int64   `json:"battery_mv"`
	Load          float64 `json:"load_percent"`
}

// World owns the simulated bodies. All bodies run on the scheduler loop;
// Stats may be read from any goroutine.
type World struct {
	cfg Config
	clk sched.Clock
	rng *rand.Rand

	rx     *receiver
	baro   *converter
	ranger *converter

	gyroSamples atomic.Uint64
	pidUpdates  atomic.Uint64
	batteryMV   atomic.Int64
	loadBits    atomic.Uint64 // float64 bits

	sampleLoad func() float64
	kick       func()
}

func New(cfg Config, clk sched.Clock) *World {
	w := &World{
		cfg: cfg,
		clk: clk,
		rng: rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
	}
	w.rx = &receiver{w: w}
	if cfg.RXFrameRateHz > 0 {
		w.rx.interval = time.Second / time.Duration(cfg.RXFrameRateHz)
		w.rx.next = w.rx.interval
	}
	w.baro = &converter{w: w, id: fctasks.Baro, conversion: cfg.BaroConversion}
	w.ranger = &converter{w: w, id: fctasks.Rangefinder, conversion: rangefinderMeasure}
	w.batteryMV.Store(packFullMV)
	return w
}

// Bind connects the SYSTEM body to the scheduler's load sampler and an
// optional liveness kick. Call before the scheduler starts.
func (w *World) Bind(sampleLoad func() float64, kick func()) {
	w.sampleLoad = sampleLoad
	w.kick = kick
}

// Bodies returns the task bodies for fctasks.NewTable.
func (w *World) Bodies() fctasks.Bodies {
	periodic := map[sched.TaskID]fctasks.Updater{
		fctasks.System:  fctasks.UpdaterFunc(w.system),
		fctasks.Gyro:    fctasks.UpdaterFunc(w.gyro),
		fctasks.PID:     fctasks.UpdaterFunc(w.pid),
		fctasks.Battery: fctasks.UpdaterFunc(w.battery),
	}
	for id := sched.TaskID(0); int(id) < fctasks.Count; id++ {
		if _, ok := periodic[id]; ok {
			continue
		}
		switch id {
		case fctasks.Baro, fctasks.Rangefinder, fctasks.RX:
			continue
		}
		periodic[id] = fctasks.UpdaterFunc(func(time.Duration) { w.spend(id) })
	}
	return fctasks.Bodies{
		Periodic:    periodic,
		Baro:        w.baro,
		Rangefinder: w.ranger,
		RX:          w.rx,
	}
}

// SetCostScale overrides Config.CostScale. Call it before the scheduler runs.
func (w *World) SetCostScale(scale float64) { w.cfg.CostScale = scale }

func (w *World) Stats() Stats {
	return Stats{
		GyroSamples:   w.gyroSamples.Load(),
		PIDUpdates:    w.pidUpdates.Load(),
		RXFrames:      w.rx.frames.Load(),
		BaroReadings:  w.baro.readings.Load(),
		RangeReadings: w.ranger.readings.Load(),
		BatteryMV:     w.batteryMV.Load(),
		Load:          math.Float64frombits(w.loadBits.Load()),
	}
}

// cost returns the jittered cost of one run of id (+-20%).
func (w *World) cost(id sched.TaskID) time.Duration {
	if w.cfg.CostScale <= 0 {
		return 0
	}
	base, ok := baseCost[id]
	if !ok {
		base = baseCostDefault
	}
	jitter := 0.8 + 0.4*w.rng.Float64()
	return time.Duration(float64(base) * w.cfg.CostScale * jitter * float64(time.Microsecond))
}

func (w *World) spend(id sched.TaskID) {
	d := w.cost(id)
	if d <= 0 {
		return
	}
	if adv, ok := w.clk.(sched.Advancer); ok {
		adv.AdvanceTo(adv.Now() + d)
		return
	}
	end := w.clk.Now() + d
	for w.clk.Now() < end {
	}
}

func (w *World) system(time.Duration) {
	w.spend(fctasks.System)
	if w.sampleLoad != nil {
		w.loadBits.Store(math.Float64bits(w.sampleLoad()))
	}
	if w.kick != nil {
		w.kick()
	}
}

func (w *World) gyro(time.Duration) {
	w.spend(fctasks.Gyro)
	w.gyroSamples.Add(1)
}

func (w *World) pid(time.Duration) {
	w.spend(fctasks.PID)
	w.pidUpdates.Add(1)
}

// battery drains the pack by 1mV per run, floored at 4 empty cells.
func (w *World) battery(time.Duration) {
	w.spend(fctasks.Battery)
	if mv := w.batteryMV.Load(); mv > 4*cellEmptyMV {
		w.batteryMV.Store(mv - 1)
	}
}
