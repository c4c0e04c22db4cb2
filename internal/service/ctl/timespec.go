package ctl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// clockLayouts are the accepted time-of-day forms, resolved to today.
//
//nolint:gochecknoglobals // Read-only lookup table.
var clockLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04:05PM", "3PM"}

// errInvalidTime is returned for input that is neither a time of day nor RFC 3339.
var errInvalidTime = errors.New("expected HH:MM, HH:MM:SS, 3:04PM or an RFC 3339 timestamp")

// ResolveTime turns user input into an absolute trigger time and rejects
// anything that is not strictly after now. Times of day are taken on the
// current day in the location of now; they never roll over to tomorrow.
func ResolveTime(now time.Time, when string, in time.Duration) (time.Time, error) {
	var (
		triggerAt time.Time
		err       error
	)

	switch {
	case in != 0 && when != "":
		return time.Time{}, errTimeAndDuration
	case in != 0:
		triggerAt = now.Add(in)
	default:
		triggerAt, err = parseTime(now, when)
		if err != nil {
			return time.Time{}, err
		}
	}

	if err = domain.ValidateFuture(now, triggerAt); err != nil {
		return time.Time{}, err
	}

	return triggerAt, nil
}

func parseTime(now time.Time, when string) (time.Time, error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return time.Time{}, errTimeRequired
	}

	if t, err := time.Parse(time.RFC3339, when); err == nil {
		return t, nil
	}

	upper := strings.ToUpper(strings.ReplaceAll(when, " ", ""))

	for _, layout := range clockLayouts {
		clock, err := time.Parse(layout, upper)
		if err != nil {
			continue
		}

		year, month, day := now.Date()

		return time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location()), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errInvalidTime, when)
}
