package config

import (
	"fmt"
	"strings"
	"time"
)

// Loop period bounds.
const (
	MinLooptime = 125 * time.Microsecond
	MaxLooptime = 100 * time.Millisecond
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// ParseLooptime parses a loop period. Empty means "keep the default" and
// returns zero; anything else must lie in [MinLooptime, MaxLooptime].
func ParseLooptime(path, raw string) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil || d == 0 {
		return d, err
	}
	if d < MinLooptime || d > MaxLooptime {
		return 0, fmt.Errorf("%s: %s out of range [%s, %s]", path, d, MinLooptime, MaxLooptime)
	}
	return d, nil
}
