package config

import "fcsched/internal/fctasks"

// Config is the on-disk configuration (YAML or JSON).
//
// All durations are Go duration strings (e.g. "500us", "10s").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Loop      LoopConfig      `json:"loop"`

	// Build lists compiled-in subsystems. Omitted means every optional
	// subsystem is built in. Build flags are read once at start.
	Build     *fctasks.Build   `json:"build,omitempty"`
	Features  fctasks.Features `json:"features"`
	Sensors   fctasks.Sensors  `json:"sensors"`
	Servo     ServoConfig      `json:"servo"`
	RCDevice  bool             `json:"rcdevice"`
	RPMFilter bool             `json:"rpm_filter"`

	Sim         SimConfig         `json:"sim"`
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
	Report      ReportConfig      `json:"report"`
	Storage     *StorageConfig    `json:"storage,omitempty"`
	Watchdog    WatchdogConfig    `json:"watchdog"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Format  string      `json:"format,omitempty"` // console (default) or json
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig tunes the scheduler core.
//
// Defaults (when fields are omitted/zero):
//   - aging_step: 10
//   - aging_cap: 350
//   - idle_sleep: "500us"
//   - overrun_warn_per_sec: 1
//   - control_queue: 64
type SchedulerConfig struct {
	AgingStep         int     `json:"aging_step,omitempty"`
	AgingCap          int     `json:"aging_cap,omitempty"`
	IdleSleep         string  `json:"idle_sleep,omitempty"`
	OverrunWarnPerSec float64 `json:"overrun_warn_per_sec,omitempty"`
	ControlQueue      int     `json:"control_queue,omitempty"`
}

// LoopConfig sets the PID and gyro loop periods. Empty keeps 1ms.
type LoopConfig struct {
	Looptime     string `json:"looptime,omitempty"`
	GyroLooptime string `json:"gyro_looptime,omitempty"`
}

type ServoConfig struct {
	Protocol string `json:"protocol,omitempty"` // PWM, SBUS, SBUS_PWM
}

// SimConfig drives the simulated sensors and receiver used on a host.
type SimConfig struct {
	RXFrameRateHz  int     `json:"rx_frame_rate_hz,omitempty"` // default 50
	BaroConversion string  `json:"baro_conversion,omitempty"`  // default "10ms"
	TaskCostScale  float64 `json:"task_cost_scale,omitempty"`  // default 1
	Seed           int64   `json:"seed,omitempty"`
}

// DiagnosticsConfig controls the read-only HTTP endpoint.
//
// Prefer binding to localhost (default "127.0.0.1:8088").
type DiagnosticsConfig struct {
	Enabled     bool   `json:"enabled"`
	Addr        string `json:"addr,omitempty"`
	ReadTimeout string `json:"read_timeout,omitempty"`
}

// ReportConfig controls the periodic diagnostics report.
//
// Schedule accepts cron specs ("*/1 * * * *", "@every 10s") or plain
// durations ("10s").
type ReportConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Top      int    `json:"top,omitempty"` // tasks listed in the log summary, default 5
}

// StorageConfig controls the optional diagnostics history.
//
// Example:
//
//	storage: { driver: sqlite, path: ./fcsched.db }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
}

// WatchdogConfig enables systemd readiness and watchdog notifications.
type WatchdogConfig struct {
	Enabled bool `json:"enabled"`
}
