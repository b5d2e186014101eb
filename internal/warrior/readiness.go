package warrior

import (
	"fmt"
	"time"
)

// IsReady reports whether the cooldown stored as a unix timestamp has
// elapsed. Callers must pass the current wall clock, never a cached one:
// the battle gate depends on it.
func IsReady(readyAt int64, now time.Time) bool {
	return now.Unix() >= readyAt
}

// TimeUntilReady returns the remaining cooldown, clamped at zero.
func TimeUntilReady(readyAt int64, now time.Time) time.Duration {
	d := time.Duration(readyAt-now.Unix()) * time.Second
	if d < 0 {
		return 0
	}
	return d
}

// FormatWait renders a remaining cooldown as whole hours and minutes.
// Seconds are floored away, matching what the cooldown is denominated in.
func FormatWait(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
