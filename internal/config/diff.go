package config

import (
	"reflect"

	logx "fcsched/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and a few
// structured fields describing the new values, for the reload log line.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)
	section := func(name string, a, b any, fields ...logx.Field) {
		if reflect.DeepEqual(a, b) {
			return
		}
		changed = append(changed, name)
		attrs = append(attrs, fields...)
	}

	section("logging", oldCfg.Logging, newCfg.Logging,
		logx.String("logging.level", newCfg.Logging.Level),
		logx.Bool("logging.file", newCfg.Logging.File.Enabled),
	)
	section("scheduler", oldCfg.Scheduler, newCfg.Scheduler,
		logx.Int("scheduler.aging_step", newCfg.Scheduler.AgingStep),
		logx.Int("scheduler.aging_cap", newCfg.Scheduler.AgingCap),
		logx.String("scheduler.idle_sleep", newCfg.Scheduler.IdleSleep),
	)
	section("loop", oldCfg.Loop, newCfg.Loop,
		logx.String("loop.looptime", newCfg.Loop.Looptime),
		logx.String("loop.gyro_looptime", newCfg.Loop.GyroLooptime),
	)
	section("build", oldCfg.Build, newCfg.Build)
	section("features", oldCfg.Features, newCfg.Features, logx.Any("features", newCfg.Features))
	section("sensors", oldCfg.Sensors, newCfg.Sensors, logx.Any("sensors", newCfg.Sensors))
	section("servo", oldCfg.Servo, newCfg.Servo, logx.String("servo.protocol", newCfg.Servo.Protocol))
	section("rcdevice", oldCfg.RCDevice, newCfg.RCDevice, logx.Bool("rcdevice", newCfg.RCDevice))
	section("rpm_filter", oldCfg.RPMFilter, newCfg.RPMFilter, logx.Bool("rpm_filter", newCfg.RPMFilter))
	section("sim", oldCfg.Sim, newCfg.Sim)
	section("diagnostics", oldCfg.Diagnostics, newCfg.Diagnostics,
		logx.Bool("diagnostics.enabled", newCfg.Diagnostics.Enabled),
		logx.String("diagnostics.addr", newCfg.Diagnostics.Addr),
	)
	section("report", oldCfg.Report, newCfg.Report,
		logx.Bool("report.enabled", newCfg.Report.Enabled),
		logx.String("report.schedule", newCfg.Report.Schedule),
	)
	section("storage", oldCfg.Storage, newCfg.Storage)
	section("watchdog", oldCfg.Watchdog, newCfg.Watchdog, logx.Bool("watchdog.enabled", newCfg.Watchdog.Enabled))

	return changed, attrs
}

// Has reports whether sections contains name.
func Has(sections []string, name string) bool {
	for _, s := range sections {
		if s == name {
			return true
		}
	}
	return false
}
