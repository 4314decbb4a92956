package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format of a calendar date.
const Layout = "2006-01-02"

const (
	MinYear = 1
	MaxYear = 9999
)

var (
	ErrInvalidMonth = errors.New("invalid year or month")
	ErrInvalidDate  = errors.New("invalid date")
)

// Date truncates t to its calendar day, keeping the wall-clock date of t's location.
// The result is midnight UTC so dates compare with Equal/Before/After.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	t, err := time.Parse(Layout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

func ValidateYearMonth(year, month int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year %d outside %d..%d", ErrInvalidMonth, year, MinYear, MaxYear)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d outside 1..12", ErrInvalidMonth, month)
	}
	return nil
}

// MonthRange returns the first and last calendar day of the month.
func MonthRange(year, month int) (time.Time, time.Time, error) {
	if err := ValidateYearMonth(year, month); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

// DaysInMonth is derived from the calendar, so leap years are handled by time.Date normalisation.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextMonth returns the month after (year, month).
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// DaysBetween counts whole days from a to b; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)) / (24 * time.Hour))
}
