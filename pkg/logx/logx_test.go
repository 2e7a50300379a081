package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", b, err)
	}
	return m
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "sched"))
	log.Warn("task overrun",
		String("task", "GYRO"),
		Micros("took_us", 1500*time.Microsecond),
		Duration("period", time.Millisecond),
		Err(nil),
	)

	m := decodeLine(t, buf.Bytes())
	if got := m["comp"]; got != "sched" {
		t.Fatalf("comp = %v, want sched", got)
	}
	if got := m["took_us"]; got != float64(1500) {
		t.Fatalf("took_us = %v, want 1500", got)
	}
	if got := m["period"]; got != "1ms" {
		t.Fatalf("period = %v, want 1ms", got)
	}
	if _, ok := m["err"]; ok {
		t.Fatalf("nil error should not add err")
	}
	if got, _ := m["caller"].(string); !strings.HasPrefix(got, "logx_test.go:") {
		t.Fatalf("caller = %q, want logx_test.go:<line>", got)
	}
}

func TestWriterLoggerLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %s", buf.String())
	}
	log.Error("shown", Err(errors.New("boom")))
	if m := decodeLine(t, buf.Bytes()); m["err"] != "boom" {
		t.Fatalf("err = %v, want boom", m["err"])
	}
}

func TestZeroAndNopLoggers(t *testing.T) {
	t.Parallel()
	var zero Logger
	if !zero.IsZero() {
		t.Fatalf("zero logger IsZero = false")
	}
	zero.Info("discarded")
	if Nop().IsZero() {
		t.Fatalf("Nop IsZero = true")
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		in   string
		want bool
	}{
		{"debug", true}, {"INFO", true}, {" warning ", true}, {"trace", true},
		{"", false}, {"loud", false},
	} {
		if got := ValidLevel(tt.in); got != tt.want {
			t.Fatalf("ValidLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestServiceFileSinkAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fc.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	t.Cleanup(func() { _ = svc.Close() })

	log.Debug("dropped")
	log.Info("kept")
	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("now kept")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2: %s", len(lines), b)
	}
	if m := decodeLine(t, []byte(lines[1])); m["message"] != "now kept" {
		t.Fatalf("message = %v, want now kept", m["message"])
	}
}

func TestThrottle(t *testing.T) {
	t.Parallel()
	th := NewThrottle(1)
	if !th.Allow() {
		t.Fatalf("first Allow = false")
	}
	for i := 0; i < 3; i++ {
		if th.Allow() {
			t.Fatalf("Allow within burst window = true")
		}
	}
	if got := th.Suppressed(); got != 3 {
		t.Fatalf("Suppressed = %d, want 3", got)
	}
	if got := th.Suppressed(); got != 0 {
		t.Fatalf("Suppressed after reset = %d, want 0", got)
	}

	var nilTh *Throttle
	if !nilTh.Allow() {
		t.Fatalf("nil throttle Allow = false")
	}
	if !NewThrottle(0).Allow() {
		t.Fatalf("disabled throttle Allow = false")
	}
}
