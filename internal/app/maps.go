package app

import (
	"fmt"
	"strings"
	"time"

	"fcsched/internal/config"
	"fcsched/internal/diag"
	"fcsched/internal/eventbus"
	"fcsched/internal/report"
	"fcsched/internal/sched"
	"fcsched/internal/sim"
	"fcsched/internal/storage"
	logx "fcsched/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapDiagConfig(cfg *config.Config) (diag.Config, error) {
	rt, err := config.ParseDurationOrDefault("diagnostics.read_timeout", cfg.Diagnostics.ReadTimeout, 5*time.Second)
	if err != nil {
		return diag.Config{}, err
	}
	return diag.Config{
		Enabled:     cfg.Diagnostics.Enabled,
		Addr:        cfg.DiagAddr(),
		ReadTimeout: rt,
	}, nil
}

func mapReportConfig(cfg *config.Config) report.Config {
	top := cfg.Report.Top
	if top <= 0 {
		top = config.DefaultReportTop
	}
	return report.Config{
		Enabled:  cfg.Report.Enabled,
		Schedule: cfg.ReportSchedule(),
		Top:      top,
	}
}

// MapSimConfig resolves the sim section with defaults applied.
func MapSimConfig(cfg *config.Config) (sim.Config, error) {
	out := sim.DefaultConfig()
	sc := cfg.Sim
	if sc.RXFrameRateHz > 0 {
		out.RXFrameRateHz = sc.RXFrameRateHz
	}
	d, err := config.ParseDurationOrDefault("sim.baro_conversion", sc.BaroConversion, config.DefaultBaroConversion)
	if err != nil {
		return out, err
	}
	out.BaroConversion = d
	if sc.TaskCostScale > 0 {
		out.CostScale = sc.TaskCostScale
	}
	if sc.Seed != 0 {
		out.Seed = sc.Seed
	}
	return out, nil
}

func schedulerOptions(ss config.SchedulerSettings, log logx.Logger, bus eventbus.Bus) []sched.Option {
	return []sched.Option{
		sched.WithLogger(log),
		sched.WithBus(bus),
		sched.WithAging(ss.Aging),
		sched.WithIdleSleep(ss.IdleSleep),
		sched.WithOverrunWarnRate(ss.OverrunWarnPerSec),
		sched.WithControlQueue(ss.ControlQueue),
	}
}
