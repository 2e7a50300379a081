package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	for _, path := range []string{"", missing} {
		cfg, err := loadConfig(path, true)
		if err != nil {
			t.Fatalf("loadConfig(%q) error: %v", path, err)
		}
		if cfg.Report.Enabled {
			t.Fatalf("default report.enabled = true, want false")
		}
	}
	if _, err := loadConfig(missing, false); err == nil {
		t.Fatalf("loadConfig(missing, false) error = nil")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "fc.yaml")
	if err := os.WriteFile(path, []byte("features: {gps: true}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if !cfg.Features.GPS {
		t.Fatalf("features.gps = false, want true")
	}

	if err := os.WriteFile(path, []byte("features: {warp: true}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path, true); err == nil {
		t.Fatalf("unknown key accepted")
	}
}
