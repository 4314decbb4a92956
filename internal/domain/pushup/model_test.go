package pushup

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEntryValidate(t *testing.T) {
	day := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	valid := Entry{UserID: "user-a", Date: day, Count: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zero := valid
	zero.Count = 0
	if err := zero.Validate(); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}

	long := valid
	long.Note = strings.Repeat("x", MaxNoteLength+1)
	if err := long.Validate(); !errors.Is(err, ErrNoteTooLong) {
		t.Fatalf("expected ErrNoteTooLong, got %v", err)
	}

	noUser := valid
	noUser.UserID = " "
	if err := noUser.Validate(); err == nil {
		t.Fatalf("expected error for missing user")
	}
}

func TestActorCheckDate(t *testing.T) {
	today := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	ordinary := Actor{UserID: "user-a"}
	if err := ordinary.CheckDate(today, today); err != nil {
		t.Fatalf("ordinary actor today: %v", err)
	}
	if err := ordinary.CheckDate(yesterday, today); !errors.Is(err, ErrDateNotAllowed) {
		t.Fatalf("expected ErrDateNotAllowed, got %v", err)
	}

	elevated := Actor{UserID: "admin", Elevated: true}
	if err := elevated.CheckDate(yesterday, today); err != nil {
		t.Fatalf("elevated actor yesterday: %v", err)
	}
}

func TestActorCanAccess(t *testing.T) {
	if !(Actor{UserID: "a"}).CanAccess("a") {
		t.Fatalf("owner should access own entry")
	}
	if (Actor{UserID: "a"}).CanAccess("b") {
		t.Fatalf("non-owner should not access foreign entry")
	}
	if (Actor{}).CanAccess("") {
		t.Fatalf("anonymous actor should not match empty owner")
	}
	if !(Actor{UserID: "a", Elevated: true}).CanAccess("b") {
		t.Fatalf("elevated actor should access any entry")
	}
}
