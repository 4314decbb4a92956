package competition

import (
	"errors"
	"fmt"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

var (
	ErrInvalidStatus = errors.New("invalid competition status")
	ErrNotFound      = errors.New("competition not found")
	ErrConflict      = errors.New("competition update conflict")
)

func ParseStatus(v string) (Status, error) {
	switch s := Status(v); s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

func DeriveMonthWindow(year, month int) (Window, error) {
	start, end, err := calendar.MonthRange(year, month)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// StatusAt places today relative to the window.
func StatusAt(w Window, today time.Time) Status {
	switch {
	case today.Before(w.Start):
		return StatusUpcoming
	case today.After(w.End):
		return StatusCompleted
	default:
		return StatusActive
	}
}

type Winner struct {
	UserID string
	Total  int
}

type Competition struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    Status
	Winner    *Winner
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMonthly builds an upcoming competition for the month; callers persist it and then transition it.
func NewMonthly(id string, year, month int, now time.Time) (Competition, error) {
	w, err := DeriveMonthWindow(year, month)
	if err != nil {
		return Competition{}, err
	}
	return Competition{
		ID:        id,
		Name:      MonthlyName(year, month),
		StartDate: w.Start,
		EndDate:   w.End,
		Status:    StatusUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MonthlyName renders e.g. "October 2025 Pushup Competition".
func MonthlyName(year, month int) string {
	return fmt.Sprintf("%s %d Pushup Competition", time.Month(month).String(), year)
}

func (c Competition) Window() Window {
	return Window{Start: c.StartDate, End: c.EndDate}
}

func (c Competition) YearMonth() (int, int) {
	return c.StartDate.Year(), int(c.StartDate.Month())
}

func (c Competition) HasWinner() bool {
	return c.Winner != nil && c.Winner.UserID != ""
}

// IsOpen reports whether a refresh may still change the record.
func (c Competition) IsOpen() bool {
	return c.Status != StatusCompleted || !c.HasWinner()
}

// Transition moves the status forward against today and reports whether it changed.
// Completed is terminal.
func (c *Competition) Transition(today time.Time) bool {
	if c.Status == StatusCompleted {
		return false
	}
	next := StatusAt(c.Window(), today)
	if next == c.Status {
		return false
	}
	c.Status = next
	return true
}

// DaysRemaining counts today as a remaining day, so the last day yields 1.
// Upcoming competitions count from today, not from their start.
func (c Competition) DaysRemaining(today time.Time) int {
	if c.Status == StatusCompleted || today.After(c.EndDate) {
		return 0
	}
	return calendar.DaysBetween(today, c.EndDate) + 1
}

func (c Competition) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s is before start date %s", calendar.Format(c.EndDate), calendar.Format(c.StartDate))
	}
	if _, err := ParseStatus(string(c.Status)); err != nil {
		return err
	}
	if c.HasWinner() && c.Status != StatusCompleted {
		return fmt.Errorf("winner set on %s competition", c.Status)
	}
	return nil
}
