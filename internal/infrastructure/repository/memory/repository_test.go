package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestPushupRepository_Aggregates(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, time.October, 1, 8, 0, 0, 0, time.UTC)
	repo := NewPushupRepository(
		pushup.Entry{ID: "e1", UserID: "a", Date: d(2025, time.October, 3), Count: 10, CreatedAt: created},
		pushup.Entry{ID: "e2", UserID: "a", Date: d(2025, time.October, 3), Count: 20, CreatedAt: created.Add(time.Hour)},
		pushup.Entry{ID: "e3", UserID: "a", Date: d(2025, time.September, 30), Count: 5, CreatedAt: created},
		pushup.Entry{ID: "e4", UserID: "b", Date: d(2025, time.October, 4), Count: 7, CreatedAt: created},
		pushup.Entry{ID: "e5", UserID: "a", Date: d(2024, time.December, 31), Count: 1, CreatedAt: created},
	)
	from, to := d(2025, time.October, 1), d(2025, time.October, 31)

	sum, err := repo.SumByUser(ctx, "a", from, to)
	if err != nil || sum != 30 {
		t.Fatalf("SumByUser = %d, %v; want 30", sum, err)
	}
	lifetime, _ := repo.SumByUser(ctx, "a", time.Time{}, time.Time{})
	if lifetime != 36 {
		t.Fatalf("lifetime = %d, want 36", lifetime)
	}

	daily, _ := repo.DailyTotals(ctx, "a", from, to)
	if len(daily) != 1 || daily[0].Total != 30 {
		t.Fatalf("unexpected daily totals: %+v", daily)
	}

	totals, _ := repo.TotalsByUser(ctx, from, to)
	if len(totals) != 2 || totals[0].UserID != "a" || totals[1].Total != 7 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	history, _ := repo.ListByUser(ctx, "a", pushup.HistoryFilter{})
	if len(history) != 4 || history[0].ID != "e2" || history[1].ID != "e1" || history[3].ID != "e5" {
		t.Fatalf("unexpected history order: %+v", history)
	}
	filtered, _ := repo.ListByUser(ctx, "a", pushup.HistoryFilter{Year: 2025, Month: 9})
	if len(filtered) != 1 || filtered[0].ID != "e3" {
		t.Fatalf("unexpected filtered history: %+v", filtered)
	}
	limited, _ := repo.ListByUser(ctx, "a", pushup.HistoryFilter{Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}

	years, _ := repo.ListYears(ctx, "a")
	if len(years) != 2 || years[0] != 2025 || years[1] != 2024 {
		t.Fatalf("unexpected years: %+v", years)
	}
}

func TestPushupRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPushupRepository(pushup.Entry{ID: "e1", UserID: "a", Date: d(2025, time.October, 3), Count: 1})

	deleted, err := repo.Delete(ctx, "e1")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got %v %v", deleted, err)
	}
	deleted, _ = repo.Delete(ctx, "e1")
	if deleted {
		t.Fatalf("expected second delete to report missing")
	}
}

func TestCompetitionRepository_CreateIsIdempotentOnStartDate(t *testing.T) {
	ctx := context.Background()
	repo := NewCompetitionRepository()
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	first, _ := competition.NewMonthly("c1", 2025, 10, now)
	stored, created, err := repo.Create(ctx, first)
	if err != nil || !created || stored.ID != "c1" {
		t.Fatalf("first create: %+v created=%v err=%v", stored, created, err)
	}

	second, _ := competition.NewMonthly("c2", 2025, 10, now)
	stored, created, err = repo.Create(ctx, second)
	if err != nil || created || stored.ID != "c1" {
		t.Fatalf("second create should return c1: %+v created=%v err=%v", stored, created, err)
	}

	found, ok, _ := repo.FindContaining(ctx, d(2025, time.October, 31))
	if !ok || found.ID != "c1" {
		t.Fatalf("expected c1 to contain Oct 31, got %+v ok=%v", found, ok)
	}
	if _, ok, _ := repo.FindContaining(ctx, d(2025, time.November, 1)); ok {
		t.Fatalf("expected no competition for Nov 1")
	}
}

func TestCompetitionRepository_MutateSerializes(t *testing.T) {
	ctx := context.Background()
	repo := NewCompetitionRepository()
	c, _ := competition.NewMonthly("c1", 2025, 9, time.Now())
	if _, _, err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, "c1", func(cur *competition.Competition) (bool, error) {
				cur.Status = competition.StatusCompleted
				if cur.Winner != nil {
					return false, nil
				}
				cur.Winner = &competition.Winner{UserID: "u", Total: i + 1}
				mu.Lock()
				winners++
				mu.Unlock()
				return true, nil
			})
			if err != nil {
				t.Errorf("mutate: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner assignment, got %d", winners)
	}

	if _, err := repo.Mutate(ctx, "missing", func(*competition.Competition) (bool, error) { return true, nil }); !errors.Is(err, competition.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompetitionRepository_ListAndLastCompleted(t *testing.T) {
	ctx := context.Background()
	repo := NewCompetitionRepository()
	for i, month := range []int{8, 9, 10} {
		c, _ := competition.NewMonthly("c"+string(rune('1'+i)), 2025, month, time.Now())
		if month < 10 {
			c.Status = competition.StatusCompleted
		}
		if month == 8 {
			c.Winner = &competition.Winner{UserID: "u", Total: 5}
		}
		if _, _, err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create %d: %v", month, err)
		}
	}

	open, _ := repo.List(ctx, competition.ListFilter{OpenOnly: true})
	if len(open) != 2 || open[0].ID != "c3" || open[1].ID != "c2" {
		t.Fatalf("unexpected open list: %+v", open)
	}

	completed, _ := repo.List(ctx, competition.ListFilter{Statuses: []competition.Status{competition.StatusCompleted}, Limit: 1})
	if len(completed) != 1 || completed[0].ID != "c2" {
		t.Fatalf("unexpected completed list: %+v", completed)
	}

	last, ok, _ := repo.LastCompleted(ctx)
	if !ok || last.ID != "c2" {
		t.Fatalf("unexpected last completed: %+v", last)
	}
}
