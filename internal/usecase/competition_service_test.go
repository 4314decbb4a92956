package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/infrastructure/repository/memory"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
)

type recordingPublisher struct {
	mu    sync.Mutex
	calls []competition.Competition
	err   error
}

func (p *recordingPublisher) PublishCompetitionCompleted(_ context.Context, c competition.Competition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type countingCompetitionMetrics struct {
	transitions atomic.Int32
	winners     atomic.Int32
}

func (m *countingCompetitionMetrics) CompetitionTransitioned(competition.Status, competition.Status) {
	m.transitions.Add(1)
}

func (m *countingCompetitionMetrics) WinnerDetermined() {
	m.winners.Add(1)
}

type competitionFixture struct {
	svc       *CompetitionService
	repo      *memory.CompetitionRepository
	entries   *memory.PushupRepository
	publisher *recordingPublisher
	metrics   *countingCompetitionMetrics
}

func newCompetitionFixture(seed ...pushup.Entry) competitionFixture {
	entries := memory.NewPushupRepository(seed...)
	repo := memory.NewCompetitionRepository()
	publisher := &recordingPublisher{}
	metrics := &countingCompetitionMetrics{}
	svc := NewCompetitionService(
		repo,
		NewStatsService(entries, time.UTC),
		publisher,
		metrics,
		idgen.NewSequenceGenerator("comp-"),
		CompetitionServiceConfig{RefreshWorkers: 2, Location: time.UTC},
		nil,
	)
	svc.now = fixedClock(fixedNow)
	return competitionFixture{svc: svc, repo: repo, entries: entries, publisher: publisher, metrics: metrics}
}

func TestCompetitionService_CreateMonthlyCompetition_CurrentMonthIsActive(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()

	c, created, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}
	if c.Status != competition.StatusActive {
		t.Fatalf("expected active, got %s", c.Status)
	}
	if c.Name != "October 2025 Pushup Competition" {
		t.Fatalf("unexpected name %q", c.Name)
	}
	if !c.StartDate.Equal(dateOf(2025, time.October, 1)) || !c.EndDate.Equal(dateOf(2025, time.October, 31)) {
		t.Fatalf("unexpected window %s..%s", c.StartDate, c.EndDate)
	}
	if days := f.svc.DaysRemaining(c); days != 17 {
		t.Fatalf("expected 17 days remaining, got %d", days)
	}

	again, created, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 10)
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if created || again.ID != c.ID {
		t.Fatalf("expected existing competition %s, got %s created=%v", c.ID, again.ID, created)
	}
	if f.metrics.transitions.Load() != 1 {
		t.Fatalf("expected one transition, got %d", f.metrics.transitions.Load())
	}
}

func TestCompetitionService_CreateMonthlyCompetition_PastMonthCompletesWithWinner(t *testing.T) {
	f := newCompetitionFixture(
		seedEntry("e1", "alice", dateOf(2025, time.September, 3), 30),
		seedEntry("e2", "bob", dateOf(2025, time.September, 4), 50),
		seedEntry("e3", "alice", dateOf(2025, time.October, 1), 500),
	)

	c, _, err := f.svc.CreateMonthlyCompetition(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != competition.StatusCompleted {
		t.Fatalf("expected completed, got %s", c.Status)
	}
	if !c.HasWinner() || c.Winner.UserID != "bob" || c.Winner.Total != 50 {
		t.Fatalf("unexpected winner: %+v", c.Winner)
	}
	if f.publisher.count() != 1 {
		t.Fatalf("expected one completion published, got %d", f.publisher.count())
	}
	if f.svc.DaysRemaining(c) != 0 {
		t.Fatalf("completed competitions have no days remaining")
	}

	if _, err := f.svc.UpdateCompetitionStatus(context.Background(), c); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if f.publisher.count() != 1 {
		t.Fatalf("expected no second publish, got %d", f.publisher.count())
	}
}

func TestCompetitionService_FutureMonthIsUpcoming(t *testing.T) {
	f := newCompetitionFixture()

	c, _, err := f.svc.CreateMonthlyCompetition(context.Background(), 2025, 11)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != competition.StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", c.Status)
	}
	if c.HasWinner() {
		t.Fatalf("upcoming competitions have no winner")
	}
	if days := f.svc.DaysRemaining(c); days != 47 {
		t.Fatalf("expected 47 days remaining, got %d", days)
	}
}

func TestCompetitionService_EmptyWindowLeavesWinnerUnset(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()

	c, _, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != competition.StatusCompleted || c.HasWinner() {
		t.Fatalf("expected completed without winner, got %s %+v", c.Status, c.Winner)
	}
	if !c.IsOpen() {
		t.Fatalf("completed competition without winner should stay open")
	}

	if err := f.entries.Create(ctx, seedEntry("late", "carol", dateOf(2025, time.August, 20), 12)); err != nil {
		t.Fatalf("seed late entry: %v", err)
	}
	withWinner, err := f.svc.DetermineWinner(ctx, c)
	if err != nil {
		t.Fatalf("determine winner: %v", err)
	}
	if !withWinner.HasWinner() || withWinner.Winner.UserID != "carol" {
		t.Fatalf("expected carol to win, got %+v", withWinner.Winner)
	}

	if err := f.entries.Create(ctx, seedEntry("later", "dave", dateOf(2025, time.August, 21), 99)); err != nil {
		t.Fatalf("seed later entry: %v", err)
	}
	unchanged, err := f.svc.DetermineWinner(ctx, withWinner)
	if err != nil {
		t.Fatalf("determine winner again: %v", err)
	}
	if unchanged.Winner.UserID != "carol" || unchanged.Winner.Total != 12 {
		t.Fatalf("winner must not change once set, got %+v", unchanged.Winner)
	}
	if f.metrics.winners.Load() != 1 {
		t.Fatalf("expected a single winner determination, got %d", f.metrics.winners.Load())
	}
}

func TestCompetitionService_DetermineWinnerRequiresCompleted(t *testing.T) {
	f := newCompetitionFixture()

	c, _, err := f.svc.CreateMonthlyCompetition(context.Background(), 2025, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.DetermineWinner(context.Background(), c); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := f.svc.DetermineWinner(context.Background(), competition.Competition{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompetitionService_RefreshCompetitions(t *testing.T) {
	f := newCompetitionFixture(
		seedEntry("e1", "alice", dateOf(2025, time.October, 10), 40),
		seedEntry("e2", "bob", dateOf(2025, time.October, 11), 40),
	)
	ctx := context.Background()

	f.svc.now = fixedClock(time.Date(2025, time.September, 20, 12, 0, 0, 0, time.UTC))
	result, err := f.svc.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{Year: 2025, Month: 9, Months: 3})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if result.CreatedCount != 3 || result.ExistingCount != 0 {
		t.Fatalf("unexpected ensure result: %+v", result)
	}

	f.svc.now = fixedClock(time.Date(2025, time.November, 2, 7, 0, 0, 0, time.UTC))
	refreshed, err := f.svc.RefreshCompetitions(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.CheckedCount != 3 || refreshed.TransitionedCount != 3 || refreshed.FailedCount != 0 {
		t.Fatalf("unexpected refresh counts: %+v", refreshed)
	}
	if refreshed.WorkerCount != 2 {
		t.Fatalf("expected 2 workers, got %d", refreshed.WorkerCount)
	}

	byName := map[string]RefreshCompetition{}
	for _, item := range refreshed.Items {
		byName[item.Name] = item
	}
	october := byName["October 2025 Pushup Competition"]
	if october.From != "upcoming" || october.To != "completed" || !october.WinnerAssigned ||
		october.WinnerUserID != "alice" || october.WinnerTotal != 40 {
		t.Fatalf("unexpected october refresh: %+v", october)
	}
	if november := byName["November 2025 Pushup Competition"]; november.To != "active" {
		t.Fatalf("unexpected november refresh: %+v", november)
	}

	// September completed without entries and stays open, October is closed for good.
	again, err := f.svc.RefreshCompetitions(ctx)
	if err != nil {
		t.Fatalf("refresh again: %v", err)
	}
	if again.CheckedCount != 2 || again.TransitionedCount != 0 {
		t.Fatalf("unexpected second refresh: %+v", again)
	}
	if f.publisher.count() != 2 {
		t.Fatalf("expected two completion events, got %d", f.publisher.count())
	}
}

func TestCompetitionService_ConcurrentStatusUpdatesPublishOnce(t *testing.T) {
	f := newCompetitionFixture(seedEntry("e1", "alice", dateOf(2025, time.October, 10), 40))
	ctx := context.Background()

	f.svc.now = fixedClock(time.Date(2025, time.October, 20, 0, 0, 0, 0, time.UTC))
	c, _, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.svc.now = fixedClock(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC))
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.UpdateCompetitionStatus(ctx, c); err != nil {
				t.Errorf("update status: %v", err)
			}
		}()
	}
	wg.Wait()

	if f.publisher.count() != 1 {
		t.Fatalf("expected exactly one publish, got %d", f.publisher.count())
	}
	if f.metrics.winners.Load() != 1 {
		t.Fatalf("expected exactly one winner determination, got %d", f.metrics.winners.Load())
	}
}

func TestCompetitionService_PublishFailureDoesNotFailTransition(t *testing.T) {
	f := newCompetitionFixture()
	f.publisher.err = errors.New("webhook down")

	c, _, err := f.svc.CreateMonthlyCompetition(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != competition.StatusCompleted {
		t.Fatalf("expected completed, got %s", c.Status)
	}
}

func TestCompetitionService_EnsureValidation(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()

	if _, err := f.svc.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{Months: 25}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected months validation error, got %v", err)
	}
	if _, err := f.svc.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{Year: 2025, Month: 13}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected month validation error, got %v", err)
	}

	result, err := f.svc.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{})
	if err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].StartDate != "2025-10-01" || result.Items[0].Status != "active" {
		t.Fatalf("unexpected default ensure: %+v", result.Items)
	}

	result, err = f.svc.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{Year: 2025, Month: 12, Months: 2})
	if err != nil {
		t.Fatalf("ensure across year: %v", err)
	}
	if result.Items[1].StartDate != "2026-01-01" {
		t.Fatalf("expected rollover into january, got %+v", result.Items[1])
	}
}

func TestCompetitionService_CurrentAndLastCompleted(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()

	if _, exists, err := f.svc.GetCurrentCompetition(ctx); err != nil || exists {
		t.Fatalf("expected no current competition, got exists=%v err=%v", exists, err)
	}

	f.svc.now = fixedClock(time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC))
	if _, _, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 9); err != nil {
		t.Fatalf("create september: %v", err)
	}
	if _, _, err := f.svc.CreateMonthlyCompetition(ctx, 2025, 10); err != nil {
		t.Fatalf("create october: %v", err)
	}

	// Stored status is stale until the current lookup refreshes it.
	f.svc.now = fixedClock(fixedNow)
	current, exists, err := f.svc.GetCurrentCompetition(ctx)
	if err != nil || !exists {
		t.Fatalf("expected current competition, got exists=%v err=%v", exists, err)
	}
	if current.Name != "October 2025 Pushup Competition" || current.Status != competition.StatusActive {
		t.Fatalf("unexpected current: %+v", current)
	}

	if _, exists, _ := f.svc.GetLastCompletedCompetition(ctx); exists {
		t.Fatalf("september has not been refreshed yet")
	}
	if _, err := f.svc.RefreshCompetitions(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	last, exists, err := f.svc.GetLastCompletedCompetition(ctx)
	if err != nil || !exists || last.Name != "September 2025 Pushup Competition" {
		t.Fatalf("unexpected last completed: %+v exists=%v err=%v", last, exists, err)
	}

	completed, err := f.svc.ListCompetitions(ctx, []competition.Status{competition.StatusCompleted}, 0)
	if err != nil || len(completed) != 1 {
		t.Fatalf("expected one completed competition, got %d %v", len(completed), err)
	}
	if _, err := f.svc.ListCompetitions(ctx, []competition.Status{"paused"}, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if _, err := f.svc.GetCompetition(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
