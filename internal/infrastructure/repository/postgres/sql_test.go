package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/lib/pq"
)

func TestMapLockError(t *testing.T) {
	for _, code := range []pq.ErrorCode{"40001", "40P01", "55P03"} {
		t.Run(string(code), func(t *testing.T) {
			err := mapLockError(fmt.Errorf("exec: %w", &pq.Error{Code: code}))
			if !errors.Is(err, competition.ErrConflict) {
				t.Fatalf("expected conflict for %s, got %v", code, err)
			}
		})
	}

	t.Run("leaves unrelated errors", func(t *testing.T) {
		in := &pq.Error{Code: "42P01", Message: "relation competitions does not exist"}
		if err := mapLockError(in); errors.Is(err, competition.ErrConflict) {
			t.Fatalf("expected no conflict, got %v", err)
		}
		if err := mapLockError(fakeErr("boom")); err.Error() != "boom" {
			t.Fatalf("expected passthrough, got %v", err)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("pq: relation does not exist")) {
		t.Fatalf("expected unrelated error to be found")
	}
}

func TestOptionalValues(t *testing.T) {
	if optionalString("  ") != nil {
		t.Fatalf("expected blank string to be nil")
	}
	if got := optionalString(" note "); got == nil || *got != "note" {
		t.Fatalf("unexpected optional string: %v", got)
	}
	if nullableInt64(0) != nil {
		t.Fatalf("expected zero to be nil")
	}
}

func TestJSONMapRoundTrip(t *testing.T) {
	raw, err := encodeJSONMap(map[string]any{"created_count": 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := decodeJSONMap(raw)
	if got["created_count"] != float64(2) {
		t.Fatalf("unexpected decoded map: %#v", got)
	}

	if raw, _ := encodeJSONMap(nil); raw != "{}" {
		t.Fatalf("expected empty object, got %s", raw)
	}
	if got := decodeJSONMap("not json"); len(got) != 0 {
		t.Fatalf("expected empty map for invalid json, got %#v", got)
	}
}

func TestCompetitionRowMapping(t *testing.T) {
	row := competitionTableModel{
		PublicID:     "c-1",
		Name:         "October 2025 Pushup Competition",
		Status:       "completed",
		WinnerUserID: sql.NullString{String: "alice", Valid: true},
		WinnerTotal:  sql.NullInt64{Int64: 40, Valid: true},
	}
	c := competitionFromRow(row)
	if !c.HasWinner() || c.Winner.Total != 40 || c.Status != competition.StatusCompleted {
		t.Fatalf("unexpected competition: %+v", c)
	}

	model := competitionInsertFromDomain(competition.Competition{ID: "c-2", Status: competition.StatusActive})
	if model.WinnerUserID != nil || model.WinnerTotal != nil {
		t.Fatalf("expected null winner columns, got %+v", model)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
