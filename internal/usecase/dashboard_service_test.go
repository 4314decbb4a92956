package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/infrastructure/repository/memory"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
)

type failingCompetitions struct {
	err error
}

func (f failingCompetitions) GetCurrentCompetition(context.Context) (competition.Competition, bool, error) {
	return competition.Competition{}, false, f.err
}

func TestDashboardService_Dashboard(t *testing.T) {
	entries := memory.NewPushupRepository(
		seedEntry("e1", "alice", dateOf(2025, time.October, 15), 20),
		seedEntry("e2", "alice", dateOf(2025, time.October, 15), 5),
		seedEntry("e3", "alice", dateOf(2025, time.October, 2), 40),
		seedEntry("e4", "alice", dateOf(2024, time.December, 31), 100),
		seedEntry("e5", "bob", dateOf(2025, time.October, 3), 90),
	)
	stats := NewStatsService(entries, time.UTC)
	stats.now = fixedClock(fixedNow)
	entrySvc := NewEntryService(entries, idgen.NewSequenceGenerator("entry-"), nil, time.UTC, nil)
	entrySvc.now = fixedClock(fixedNow)
	competitions := NewCompetitionService(memory.NewCompetitionRepository(), stats, nil, nil,
		idgen.NewSequenceGenerator("comp-"), CompetitionServiceConfig{Location: time.UTC}, nil)
	competitions.now = fixedClock(fixedNow)
	if _, _, err := competitions.CreateMonthlyCompetition(context.Background(), 2025, 10); err != nil {
		t.Fatalf("create competition: %v", err)
	}

	svc := NewDashboardService(stats, entrySvc, competitions, time.UTC)
	svc.now = fixedClock(fixedNow)

	got, err := svc.Dashboard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got.Year != 2025 || got.Month != 10 || !got.Today.Equal(dateOf(2025, time.October, 15)) {
		t.Fatalf("unexpected period: %d-%d %s", got.Year, got.Month, got.Today)
	}
	if got.TodayTotal != 25 || got.LifetimeTotal != 165 {
		t.Fatalf("unexpected totals: today=%d lifetime=%d", got.TodayTotal, got.LifetimeTotal)
	}
	if got.Stats.Total != 65 || got.Stats.DaysActive != 2 || got.Stats.BestDay != 40 || got.Stats.Average != 32.5 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
	if !got.Rank.Ranked || got.Rank.Rank != 2 || got.Rank.Competitors != 2 {
		t.Fatalf("unexpected rank: %+v", got.Rank)
	}
	if len(got.Daily) != 31 || got.Daily[14].Total != 25 {
		t.Fatalf("unexpected daily series: len=%d", len(got.Daily))
	}
	if len(got.Recent) != 4 || got.Recent[0].Date.Before(got.Recent[len(got.Recent)-1].Date) {
		t.Fatalf("unexpected recent entries: %+v", got.Recent)
	}
	if got.Competition == nil || got.Competition.DaysRemaining != 17 || got.Competition.Competition.Status != competition.StatusActive {
		t.Fatalf("unexpected competition summary: %+v", got.Competition)
	}
}

func TestDashboardService_DashboardWithoutCompetition(t *testing.T) {
	entries := memory.NewPushupRepository()
	stats := NewStatsService(entries, time.UTC)
	entrySvc := NewEntryService(entries, nil, nil, time.UTC, nil)
	competitions := NewCompetitionService(memory.NewCompetitionRepository(), stats, nil, nil, nil, CompetitionServiceConfig{}, nil)

	got, err := NewDashboardService(stats, entrySvc, competitions, time.UTC).Dashboard(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got.Competition != nil || got.Rank.Ranked || got.LifetimeTotal != 0 || len(got.Recent) != 0 {
		t.Fatalf("expected an empty dashboard, got %+v", got)
	}
}

func TestDashboardService_DashboardPropagatesErrors(t *testing.T) {
	entries := memory.NewPushupRepository()
	stats := NewStatsService(entries, time.UTC)
	entrySvc := NewEntryService(entries, nil, nil, time.UTC, nil)
	boom := errors.New("lookup failed")

	svc := NewDashboardService(stats, entrySvc, failingCompetitions{err: boom}, time.UTC)
	if _, err := svc.Dashboard(context.Background(), "u"); !errors.Is(err, boom) {
		t.Fatalf("expected competition error, got %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing user, got %v", err)
	}
}

func TestDashboardService_Profile(t *testing.T) {
	seed := make([]pushup.Entry, 0, 12)
	for day := 1; day <= 12; day++ {
		seed = append(seed, seedEntry("p"+time.Month(day).String(), "carol", dateOf(2025, time.October, day), day))
	}
	entries := memory.NewPushupRepository(seed...)
	stats := NewStatsService(entries, time.UTC)
	stats.now = fixedClock(fixedNow)
	entrySvc := NewEntryService(entries, nil, nil, time.UTC, nil)

	svc := NewDashboardService(stats, entrySvc, failingCompetitions{}, time.UTC)
	svc.now = fixedClock(fixedNow)

	got, err := svc.Profile(context.Background(), "carol")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Stats.Total != 78 || got.Stats.DaysActive != 12 || got.Stats.Average != 6.5 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
	if len(got.Recent) != defaultRecentEntries || got.Recent[0].Count != 12 {
		t.Fatalf("unexpected recent entries: %d", len(got.Recent))
	}
	if got.Rank.Rank != 1 {
		t.Fatalf("unexpected rank: %+v", got.Rank)
	}
}

func TestDashboardService_DashboardShowsTenRecentEntries(t *testing.T) {
	seed := make([]pushup.Entry, 0, 12)
	for day := 1; day <= 12; day++ {
		seed = append(seed, seedEntry("d"+time.Month(day).String(), "dave", dateOf(2025, time.October, day), day))
	}
	entries := memory.NewPushupRepository(seed...)
	stats := NewStatsService(entries, time.UTC)
	stats.now = fixedClock(fixedNow)
	entrySvc := NewEntryService(entries, nil, nil, time.UTC, nil)
	competitions := NewCompetitionService(memory.NewCompetitionRepository(), stats, nil, nil,
		idgen.NewSequenceGenerator("comp-"), CompetitionServiceConfig{Location: time.UTC}, nil)
	competitions.now = fixedClock(fixedNow)

	svc := NewDashboardService(stats, entrySvc, competitions, time.UTC)
	svc.now = fixedClock(fixedNow)

	got, err := svc.Dashboard(context.Background(), "dave")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(got.Recent) != 10 || got.Recent[0].Count != 12 || got.Recent[9].Count != 3 {
		t.Fatalf("expected the ten newest entries, got %d", len(got.Recent))
	}
}
