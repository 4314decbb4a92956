package leaderboard

import (
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

func day(d int) time.Time {
	return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC)
}

func TestRank_TieBreakByUserID(t *testing.T) {
	rows := Rank([]pushup.UserTotal{
		{UserID: "C", Total: 10},
		{UserID: "B", Total: 40},
		{UserID: "A", Total: 40},
	})

	want := []Row{
		{Rank: 1, UserID: "A", Total: 40},
		{Rank: 2, UserID: "B", Total: 40},
		{Rank: 3, UserID: "C", Total: 10},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d: want %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestRank_EmptyAndInputUntouched(t *testing.T) {
	if rows := Rank(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}

	in := []pushup.UserTotal{{UserID: "b", Total: 1}, {UserID: "a", Total: 2}}
	_ = Rank(in)
	if in[0].UserID != "b" {
		t.Fatalf("Rank must not reorder its input")
	}
}

func TestFind(t *testing.T) {
	rows := Rank([]pushup.UserTotal{{UserID: "a", Total: 5}, {UserID: "b", Total: 9}})
	row, ok := Find(rows, "a")
	if !ok || row.Rank != 2 {
		t.Fatalf("unexpected find result: %+v ok=%v", row, ok)
	}
	if _, ok := Find(rows, "z"); ok {
		t.Fatalf("expected unranked user")
	}
}

func TestSummarize_SameDayEntriesCountOnce(t *testing.T) {
	stats := Summarize([]pushup.DailyTotal{
		{Date: day(3), Total: 10},
		{Date: day(3), Total: 20},
	})

	want := MonthlyStats{Total: 30, Average: 30.0, BestDay: 30, DaysActive: 1}
	if stats != want {
		t.Fatalf("want %+v, got %+v", want, stats)
	}
}

func TestSummarize_AverageRounding(t *testing.T) {
	stats := Summarize([]pushup.DailyTotal{
		{Date: day(1), Total: 10},
		{Date: day(2), Total: 10},
		{Date: day(3), Total: 11},
	})
	if stats.Average != 10.3 {
		t.Fatalf("expected 10.3, got %v", stats.Average)
	}
	if stats.BestDay != 11 || stats.DaysActive != 3 || stats.Total != 31 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if got := RoundOne(0.25); got != 0.3 {
		t.Fatalf("expected half away from zero, got %v", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if stats := Summarize(nil); stats != (MonthlyStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestDailySeries(t *testing.T) {
	points := DailySeries(2024, 2, []pushup.DailyTotal{
		{Date: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), Total: 15},
		{Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Total: 99},
	})
	if len(points) != 29 {
		t.Fatalf("expected 29 points, got %d", len(points))
	}
	if points[28].Total != 15 || points[28].Day != 29 {
		t.Fatalf("unexpected last point: %+v", points[28])
	}
	if points[0].Total != 0 {
		t.Fatalf("expected zero-filled day 1, got %+v", points[0])
	}
}
