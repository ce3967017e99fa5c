package streak

import (
	"fmt"
	"time"

	"github.com/shlok2345788/dropout-front/internal/models"
)

// FormatCountdown renders the wait until the next allowed click with
// day/hour/minute granularity.
func FormatCountdown(rec models.StreakRecord, now time.Time) string {
	if rec.NextUpdateAllowed == nil {
		return "Click daily to maintain streak"
	}

	diff := rec.NextUpdateAllowed.Sub(now)
	if diff <= 0 {
		return "Available now"
	}

	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("Available in %dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("Available in %dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("Available in %dm", minutes)
	}
}
