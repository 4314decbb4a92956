package pushup

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxNoteLength = 500

var (
	ErrInvalidCount   = errors.New("count must be at least 1")
	ErrDateNotAllowed = errors.New("date not allowed for this actor")
	ErrNoteTooLong    = errors.New("note too long")
)

// Entry is one logged pushup count. Several entries per user and day are summed.
type Entry struct {
	ID        string
	UserID    string
	Date      time.Time
	Count     int
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the caller of an entry mutation. Elevated actors may read and edit any entry and pick
// any date; deletion stays with the owner.
type Actor struct {
	UserID   string
	Elevated bool
}

// CanAccess reports whether the actor may read or mutate an entry owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.Elevated || a.Owns(ownerID)
}

// Owns reports whether the actor is the entry's owner, regardless of elevation.
func (a Actor) Owns(ownerID string) bool {
	return a.UserID != "" && a.UserID == ownerID
}

// CheckDate enforces that ordinary actors only log for today.
func (a Actor) CheckDate(date, today time.Time) error {
	if a.Elevated {
		return nil
	}
	if !date.Equal(today) {
		return fmt.Errorf("%w: %s is not today", ErrDateNotAllowed, date.Format("2006-01-02"))
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if e.Count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, e.Count)
	}
	if len(e.Note) > MaxNoteLength {
		return fmt.Errorf("%w: max %d characters", ErrNoteTooLong, MaxNoteLength)
	}
	return nil
}

type DailyTotal struct {
	Date  time.Time
	Total int
}

type UserTotal struct {
	UserID string
	Total  int
}

// HistoryFilter narrows ListByUser. Zero fields mean no filter.
type HistoryFilter struct {
	Year  int
	Month int
	Limit int
}
