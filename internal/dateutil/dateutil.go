// Package dateutil parses the dates and times typed on the command line.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conftable/conftable/internal/interval"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTimeFormat  = errors.New(`time must be "YYYY-MM-DD HH:MM" or RFC 3339`)
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
	ErrUnknownDay         = errors.New("day is not part of the event")
)

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a new DateRange with validation.
// endDate can be empty (defaults to startDate).
func NewDateRange(startDate, endDate string) (*DateRange, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	end := start
	if endDate != "" {
		end, err = ParseDate(endDate)
		if err != nil {
			return nil, err
		}
	}

	if end.Before(start) {
		return nil, ErrEndDateBeforeStart
	}

	return &DateRange{Start: start, End: end}, nil
}

// Days returns the number of dates in the range.
func (r *DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// ParseDate parses a date string in YYYY-MM-DD format as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn parses a YYYY-MM-DD date as midnight in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseDateTime parses a slot time. Times without an offset are read in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := interval.ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return t, nil
}

// ParseOptionalDateTime is ParseDateTime for optional flags: "" yields nil.
func ParseOptionalDateTime(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDateTime(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ResolveDay picks one of days (local midnights, in order) from user input:
//   - "" or "first": the first day
//   - "last": the last day
//   - "today": today in the days' timezone
//   - "1", "2", ...: the n-th day
//   - "2025-06-12": that date
//
// All inputs are case-insensitive. Dates outside days return ErrUnknownDay.
func ResolveDay(s string, days []time.Time, now time.Time) (time.Time, error) {
	if len(days) == 0 {
		return time.Time{}, ErrUnknownDay
	}
	loc := days[0].Location()
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "first":
		return days[0], nil
	case "last":
		return days[len(days)-1], nil
	case "today":
		return find(days, TruncateToDay(now.In(loc)))
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(days) {
			return time.Time{}, fmt.Errorf("%w: day %d of %d", ErrUnknownDay, n, len(days))
		}
		return days[n-1], nil
	}

	d, err := ParseDateIn(input, loc)
	if err != nil {
		return time.Time{}, err
	}
	return find(days, d)
}

func find(days []time.Time, d time.Time) (time.Time, error) {
	for _, day := range days {
		if day.Equal(d) {
			return day, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownDay, d.Format(time.DateOnly))
}
