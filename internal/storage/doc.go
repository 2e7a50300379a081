// Package storage keeps an optional diagnostics history: periodic task
// samples and scheduler events. The scheduler never reads it back.
package storage
