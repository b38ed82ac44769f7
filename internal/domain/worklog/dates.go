package worklog

import (
	"fmt"
	"time"
)

// DayLayout is the storage format of log and report dates.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD day in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, day)
	}
	return t, nil
}

// DayBounds returns the first and last instants of day in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDay(day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// ShiftDay returns day moved by n days.
func ShiftDay(day string, n int) (string, error) {
	t, err := ParseDay(day, time.UTC)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// Today returns the current day in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DayLayout)
}
