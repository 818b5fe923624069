package breeding

import (
	"fmt"
	"time"
)

// DefaultCooldown applies to every generation without a table entry.
const DefaultCooldown = time.Hour

var cooldowns = map[int]time.Duration{
	0: 4 * time.Hour,
	1: 3 * time.Hour,
	2: 2 * time.Hour,
	3: 90 * time.Minute,
}

// Cooldown returns how long a parent of the given generation rests after breeding.
func Cooldown(generation int) time.Duration {
	if d, ok := cooldowns[generation]; ok {
		return d
	}
	return DefaultCooldown
}

// FormatCooldown renders d as whole hours and minutes, e.g. "1h 30m" or "45m".
func FormatCooldown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// TimestampLayout is the ISO-8601 form cooldown ends are rendered in.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and any RFC 3339 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
