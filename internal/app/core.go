package app

import (
	"fmt"

	"fcsched/internal/config"
	"fcsched/internal/eventbus"
	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
	"fcsched/internal/sim"
	logx "fcsched/pkg/logx"
)

// Core is the scheduler with its task table, bodies and initial plan.
type Core struct {
	Scheduler *sched.Scheduler
	World     *sim.World
	Settings  fctasks.Settings
	Plan      fctasks.Plan
}

// NewCore builds the flight-controller task set from cfg on clk and applies
// the init plan. kick, if set, is called from the SYSTEM task.
func NewCore(cfg *config.Config, clk sched.Clock, bus eventbus.Bus, log logx.Logger, kick func()) (*Core, error) {
	ss, err := cfg.SchedulerSettings()
	if err != nil {
		return nil, err
	}
	ts, err := cfg.TaskSettings()
	if err != nil {
		return nil, err
	}
	sc, err := MapSimConfig(cfg)
	if err != nil {
		return nil, err
	}

	world := sim.New(sc, clk)
	tbl, err := fctasks.NewTable(world.Bodies())
	if err != nil {
		return nil, fmt.Errorf("task table: %w", err)
	}
	s, err := sched.New(tbl, clk, schedulerOptions(ss, log, bus)...)
	if err != nil {
		return nil, err
	}
	world.Bind(s.SampleLoad, kick)

	plan := fctasks.NewPlan(ts)
	if err := fctasks.Apply(s, plan); err != nil {
		return nil, fmt.Errorf("apply task plan: %w", err)
	}
	log.Info("tasks initialized",
		logx.Strs("enabled", plan.EnabledNames()),
		logx.Duration("looptime", plan.Period(fctasks.PID)),
		logx.Duration("gyro_looptime", plan.Period(fctasks.Gyro)),
	)
	return &Core{Scheduler: s, World: world, Settings: ts, Plan: plan}, nil
}
