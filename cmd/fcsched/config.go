package main

import (
	"errors"
	"io/fs"

	"fcsched/internal/config"
)

// loadConfig loads path, or the built-in defaults when path is empty or
// missing and allowMissing is set.
func loadConfig(path string, allowMissing bool) (*config.Config, error) {
	if path != "" {
		cfg, err := config.NewManager(path).Load()
		if err == nil || !allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	if !allowMissing {
		return nil, errors.New("--config is required")
	}
	cfg, err := config.Decode("defaults.json", []byte("{}"))
	if err != nil {
		return nil, err
	}
	return cfg, config.Validate(cfg)
}
