package competition

import (
	"errors"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveMonthWindow(t *testing.T) {
	w, err := DeriveMonthWindow(2024, 2)
	if err != nil {
		t.Fatalf("derive window: %v", err)
	}
	if !w.Start.Equal(date(2024, time.February, 1)) || !w.End.Equal(date(2024, time.February, 29)) {
		t.Fatalf("unexpected leap window: %+v", w)
	}

	w, err = DeriveMonthWindow(2025, 2)
	if err != nil {
		t.Fatalf("derive window: %v", err)
	}
	if w.End.Day() != 28 {
		t.Fatalf("expected 28 days in Feb 2025, got %d", w.End.Day())
	}

	if _, err := DeriveMonthWindow(2025, 13); !errors.Is(err, calendar.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestStatusAt(t *testing.T) {
	w, _ := DeriveMonthWindow(2025, 10)

	tests := []struct {
		name  string
		today time.Time
		want  Status
	}{
		{"day before start", date(2025, time.September, 30), StatusUpcoming},
		{"start", w.Start, StatusActive},
		{"middle", date(2025, time.October, 15), StatusActive},
		{"end", w.End, StatusActive},
		{"day after end", w.End.AddDate(0, 0, 1), StatusCompleted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusAt(w, tc.today); got != tc.want {
				t.Fatalf("StatusAt(%s) = %s, want %s", calendar.Format(tc.today), got, tc.want)
			}
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	c, err := NewMonthly("c1", 2025, 10, time.Now())
	if err != nil {
		t.Fatalf("new monthly: %v", err)
	}
	c.Status = StatusActive

	if got := c.DaysRemaining(c.EndDate); got != 1 {
		t.Fatalf("expected 1 on end date, got %d", got)
	}
	if got := c.DaysRemaining(c.EndDate.AddDate(0, 0, 1)); got != 0 {
		t.Fatalf("expected 0 after end date, got %d", got)
	}
	if got := c.DaysRemaining(c.StartDate); got != 31 {
		t.Fatalf("expected 31 on start date, got %d", got)
	}

	c.Status = StatusCompleted
	if got := c.DaysRemaining(c.StartDate); got != 0 {
		t.Fatalf("expected 0 when completed, got %d", got)
	}
}

func TestTransition_CompletedIsTerminal(t *testing.T) {
	c, _ := NewMonthly("c1", 2025, 10, time.Now())

	if changed := c.Transition(date(2025, time.September, 1)); changed {
		t.Fatalf("expected no change while upcoming")
	}
	if changed := c.Transition(date(2025, time.October, 2)); !changed || c.Status != StatusActive {
		t.Fatalf("expected active, got %s changed=%v", c.Status, changed)
	}
	if changed := c.Transition(date(2025, time.November, 1)); !changed || c.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s changed=%v", c.Status, changed)
	}
	if changed := c.Transition(date(2025, time.October, 2)); changed || c.Status != StatusCompleted {
		t.Fatalf("completed must not regress, got %s", c.Status)
	}
}

func TestNewMonthlyAndValidate(t *testing.T) {
	now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	c, err := NewMonthly("c1", 2025, 10, now)
	if err != nil {
		t.Fatalf("new monthly: %v", err)
	}
	if c.Name != "October 2025 Pushup Competition" {
		t.Fatalf("unexpected name %q", c.Name)
	}
	if c.Status != StatusUpcoming || !c.CreatedAt.Equal(now) {
		t.Fatalf("unexpected competition: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	c.Winner = &Winner{UserID: "u1", Total: 10}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected winner on upcoming competition to fail")
	}

	c.Winner = nil
	c.EndDate = c.StartDate.AddDate(0, 0, -1)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected inverted window to fail")
	}
}

func TestIsOpen(t *testing.T) {
	c := Competition{Status: StatusActive}
	if !c.IsOpen() {
		t.Fatalf("active competition should be open")
	}
	c.Status = StatusCompleted
	if !c.IsOpen() {
		t.Fatalf("completed competition without winner should be open")
	}
	c.Winner = &Winner{UserID: "u1", Total: 3}
	if c.IsOpen() {
		t.Fatalf("completed competition with winner should be closed")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("active"); err != nil || s != StatusActive {
		t.Fatalf("unexpected parse result: %s %v", s, err)
	}
	if _, err := ParseStatus("paused"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
