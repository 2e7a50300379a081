package eventbus

import "time"

// Scheduler topics.
const (
	TypeTaskOverrun  = "task.overrun"
	TypeTaskEnabled  = "task.enabled"
	TypeTaskPeriod   = "task.period"
	TypeConfigReload = "config.reload"
)

// TaskOverrun is published when a realtime task runs longer than its period.
type TaskOverrun struct {
	Task     string        `json:"task"`
	Took     time.Duration `json:"took"`
	Period   time.Duration `json:"period"`
	Overruns uint64        `json:"overruns"`
}

// TaskEnabled is published on every effective enable/disable transition.
type TaskEnabled struct {
	Task    string `json:"task"`
	Enabled bool   `json:"enabled"`
}

// TaskPeriod is published when a task's desired period changes.
type TaskPeriod struct {
	Task   string        `json:"task"`
	From   time.Duration `json:"from"`
	Period time.Duration `json:"period"`
}

// ConfigReload carries the changed config section names.
type ConfigReload struct {
	Sections []string `json:"sections"`
}
