package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
	logx "fcsched/pkg/logx"
)

const (
	DefaultIdleSleep      = 500 * time.Microsecond
	DefaultOverrunWarn    = 1.0
	DefaultControlQueue   = 64
	DefaultDiagAddr       = "127.0.0.1:8088"
	DefaultReportSchedule = "@every 10s"
	DefaultReportTop      = 5
	DefaultRXFrameRateHz  = 50
	DefaultBaroConversion = 10 * time.Millisecond
)

// SchedulerSettings is SchedulerConfig with defaults applied.
type SchedulerSettings struct {
	Aging             sched.Aging
	IdleSleep         time.Duration
	OverrunWarnPerSec float64
	ControlQueue      int
}

func (c *Config) SchedulerSettings() (SchedulerSettings, error) {
	sc := c.Scheduler
	out := SchedulerSettings{
		Aging:             sched.DefaultAging,
		OverrunWarnPerSec: DefaultOverrunWarn,
		ControlQueue:      DefaultControlQueue,
	}
	if sc.AgingStep != 0 {
		out.Aging.Step = sc.AgingStep
	}
	if sc.AgingCap != 0 {
		out.Aging.Cap = sc.AgingCap
	}
	if err := out.Aging.Validate(); err != nil {
		return out, fmt.Errorf("scheduler: %w", err)
	}
	d, err := ParseDurationOrDefault("scheduler.idle_sleep", sc.IdleSleep, DefaultIdleSleep)
	if err != nil {
		return out, err
	}
	out.IdleSleep = d
	if sc.OverrunWarnPerSec < 0 {
		return out, fmt.Errorf("scheduler.overrun_warn_per_sec: must be >= 0")
	}
	if sc.OverrunWarnPerSec > 0 {
		out.OverrunWarnPerSec = sc.OverrunWarnPerSec
	}
	if sc.ControlQueue < 0 {
		return out, fmt.Errorf("scheduler.control_queue: must be >= 0")
	}
	if sc.ControlQueue > 0 {
		out.ControlQueue = sc.ControlQueue
	}
	return out, nil
}

// TaskSettings resolves the inputs of the task init plan.
func (c *Config) TaskSettings() (fctasks.Settings, error) {
	var s fctasks.Settings
	s.Build = fctasks.FullBuild()
	if c.Build != nil {
		s.Build = *c.Build
	}
	s.Features = c.Features
	s.Sensors = c.Sensors
	s.RCDevice = c.RCDevice
	s.RPMFilter = c.RPMFilter

	p, err := fctasks.ParseServoProtocol(c.Servo.Protocol)
	if err != nil {
		return s, fmt.Errorf("servo.protocol: %w", err)
	}
	s.ServoProtocol = p

	if s.Looptime, err = ParseLooptime("loop.looptime", c.Loop.Looptime); err != nil {
		return s, err
	}
	if s.GyroLooptime, err = ParseLooptime("loop.gyro_looptime", c.Loop.GyroLooptime); err != nil {
		return s, err
	}
	return s, nil
}

// LogConfig maps the logging section onto logx.
func (c *Config) LogConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

// Validate checks everything that can be checked without side effects.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if lvl := strings.TrimSpace(c.Logging.Level); lvl != "" && !logx.ValidLevel(lvl) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", lvl))
	}
	switch f := strings.ToLower(strings.TrimSpace(c.Logging.Format)); f {
	case "", logx.FormatConsole, logx.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if _, err := c.SchedulerSettings(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.TaskSettings(); err != nil {
		errs = append(errs, err)
	}
	if c.Sim.RXFrameRateHz < 0 {
		errs = append(errs, fmt.Errorf("sim.rx_frame_rate_hz: must be >= 0"))
	}
	if c.Sim.TaskCostScale < 0 {
		errs = append(errs, fmt.Errorf("sim.task_cost_scale: must be >= 0"))
	}
	if _, err := ParseDurationField("sim.baro_conversion", c.Sim.BaroConversion); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("diagnostics.read_timeout", c.Diagnostics.ReadTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DiagAddr returns the diagnostics listen address with the default applied.
func (c *Config) DiagAddr() string {
	if a := strings.TrimSpace(c.Diagnostics.Addr); a != "" {
		return a
	}
	return DefaultDiagAddr
}

// ReportSchedule returns the report schedule with the default applied.
func (c *Config) ReportSchedule() string {
	if s := strings.TrimSpace(c.Report.Schedule); s != "" {
		return s
	}
	return DefaultReportSchedule
}
