package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDurationDefault accepts Go durations ("90s", "6h") or a bare number of
// seconds. Empty, invalid or negative input returns def.
func ParseDurationDefault(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
