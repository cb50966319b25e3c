package listing

import (
	"fmt"
	"time"

	"luxauction-api/internal/domain"
)

const day = 24 * time.Hour

// TimeLeft renders the status/remaining-time text shown next to a listing.
// It is a pure function of its inputs; nothing is persisted when a listing
// runs out of time. Every unit is floored.
func TimeLeft(now, start, end time.Time, status domain.ListingStatus) string {
	if status != domain.StatusActive || start.After(now) {
		if start.After(now) {
			return startsIn(start.Sub(now))
		}
		// a Pending listing whose window is open is rendered as if it were Active
		if status != domain.StatusPending || !end.After(now) {
			return string(status)
		}
	}

	if end.Before(now) {
		return string(domain.StatusExpired)
	}

	left := end.Sub(now)
	switch {
	case left >= 2*day:
		return fmt.Sprintf("%dd left", left/day)
	case left >= time.Hour:
		return fmt.Sprintf("%dh %dm left", left/time.Hour, (left%time.Hour)/time.Minute)
	case left >= time.Minute:
		return fmt.Sprintf("%dm %ds left", left/time.Minute, (left%time.Minute)/time.Second)
	case left > 0:
		return fmt.Sprintf("%ds left", left/time.Second)
	}
	return string(domain.StatusExpired)
}

func startsIn(d time.Duration) string {
	switch {
	case d >= 2*day:
		return fmt.Sprintf("Starts in %d days", d/day)
	case d >= time.Hour:
		return fmt.Sprintf("Starts in %d hours", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("Starts in %d minutes", d/time.Minute)
	}
	return "Starts soon"
}
