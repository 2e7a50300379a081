package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines files next to Path
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the reporter and the event recorder.
type Store interface {
	AppendSamples(ctx context.Context, b SampleBatch) error
	AppendEvent(ctx context.Context, e EventRecord) error
	// RecentEvents returns up to limit events, oldest first.
	RecentEvents(ctx context.Context, limit int) ([]EventRecord, error)
	Close() error
}

// SampleBatch is one report tick.
type SampleBatch struct {
	Session     string    `json:"session"`
	At          time.Time `json:"at"`
	Uptime      int64     `json:"uptime_us"`
	Passes      uint64    `json:"passes"`
	IdlePasses  uint64    `json:"idle_passes"`
	LoadPercent float64   `json:"load_percent"`
	Samples     []Sample  `json:"samples"`
}

// Sample is the state of one task at a report tick. Times are microseconds.
type Sample struct {
	Task       string `json:"task"`
	Enabled    bool   `json:"enabled"`
	Executions uint64 `json:"executions"`
	AvgExecUS  int64  `json:"avg_exec_us"`
	MaxExecUS  int64  `json:"max_exec_us"`
	AgeCycles  uint32 `json:"age_cycles"`
	Overruns   uint64 `json:"overruns"`
	CheckCalls uint64 `json:"check_calls"`
}

// EventRecord is a persisted scheduler event.
type EventRecord struct {
	Session string    `json:"session"`
	At      time.Time `json:"at"`
	Type    string    `json:"type"`
	Task    string    `json:"task,omitempty"`
	Data    string    `json:"data,omitempty"` // JSON
}
