package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxRangeDays is the longest span allowed between start and end dates.
	MaxRangeDays = 365

	// EarliestYear is the first year the archive is queried for.
	EarliestYear = 1950

	// MaxYearsAhead bounds how far past the current year an end date may fall.
	MaxYearsAhead = 2
)

// RangeViolation is a date range rejection. Its text is shown to clients verbatim.
type RangeViolation string

func (v RangeViolation) Error() string {
	return string(v)
}

const (
	ErrStartAfterEnd  RangeViolation = "Start date must be before end date."
	ErrRangeTooLong   RangeViolation = "Date range too long (max 1 year)."
	ErrStartTooEarly  RangeViolation = "Start date too far in the past."
	ErrEndTooFarAhead RangeViolation = "End date too far in the future."
)

// ParseDate parses a YYYY-MM-DD calendar date into a UTC midnight time.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))

	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}

	return t, nil
}

// TruncateToDate drops the time of day, keeping the calendar date as seen in t's location.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateDateRange checks a start/end pair against the archive's rules.
// Rules are evaluated in order and the first violation is returned.
//
// Parameters:
//   - start: First day of the range
//   - end: Last day of the range
//   - today: Current date, used for the future bound
//
// Returns:
//   - error: One of ErrStartAfterEnd, ErrRangeTooLong, ErrStartTooEarly, ErrEndTooFarAhead, or nil
func ValidateDateRange(start, end, today time.Time) error {
	start = TruncateToDate(start)
	end = TruncateToDate(end)

	if start.After(end) {
		return ErrStartAfterEnd
	}

	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return ErrRangeTooLong
	}

	if start.Year() < EarliestYear {
		return ErrStartTooEarly
	}

	if end.Year() > today.Year()+MaxYearsAhead {
		return ErrEndTooFarAhead
	}

	return nil
}
