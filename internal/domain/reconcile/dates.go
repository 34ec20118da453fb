package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Layouts carrying their own offset. Fractional seconds are accepted by
// time.Parse after the seconds field even when the layout omits them.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// Layouts without an offset are read in the calendar's default zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a structured-data date string. Values without an offset
// are interpreted in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// StatusAt returns PAST when the event finished before now, UPCOMING
// otherwise. Events without an end are judged by their start.
func StatusAt(start time.Time, end *time.Time, now time.Time) string {
	last := start
	if end != nil {
		last = *end
	}
	if last.Before(now) {
		return statusPast
	}
	return statusUpcoming
}
