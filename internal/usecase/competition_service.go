package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/leaderboard"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultEnsureMonths   = 1
	maxEnsureMonths       = 24
	defaultRefreshWorkers = 4
	maxRefreshWorkers     = 32
)

// CompletionPublisher hands completed competitions to the notification side.
type CompletionPublisher interface {
	PublishCompetitionCompleted(ctx context.Context, c competition.Competition) error
}

type noopCompletionPublisher struct{}

func (noopCompletionPublisher) PublishCompetitionCompleted(context.Context, competition.Competition) error {
	return nil
}

func NewNoopCompletionPublisher() CompletionPublisher {
	return noopCompletionPublisher{}
}

type CompetitionMetrics interface {
	CompetitionTransitioned(from, to competition.Status)
	WinnerDetermined()
}

type noopCompetitionMetrics struct{}

func (noopCompetitionMetrics) CompetitionTransitioned(competition.Status, competition.Status) {}
func (noopCompetitionMetrics) WinnerDetermined()                                              {}

type leaderboardSource interface {
	MonthlyLeaderboard(ctx context.Context, year, month int) ([]leaderboard.Row, error)
}

type CompetitionServiceConfig struct {
	RefreshWorkers int
	Location       *time.Location
}

type EnsureCompetitionsInput struct {
	// Year and Month default to the current month when zero.
	Year   int
	Month  int
	Months int
}

type EnsureCompetitionsResult struct {
	CreatedCount  int                 `json:"created_count"`
	ExistingCount int                 `json:"existing_count"`
	Items         []EnsureCompetition `json:"items"`
}

type EnsureCompetition struct {
	Competition competition.Competition `json:"-"`
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	StartDate   string                  `json:"start_date"`
	Status      string                  `json:"status"`
	Created     bool                    `json:"created"`
}

type RefreshCompetitionsResult struct {
	CheckedCount      int                  `json:"checked_count"`
	TransitionedCount int                  `json:"transitioned_count"`
	FailedCount       int                  `json:"failed_count"`
	WorkerCount       int                  `json:"worker_count"`
	Items             []RefreshCompetition `json:"items"`
}

type RefreshCompetition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
	// WinnerAssigned is set when this refresh recorded the winner, with or without a status change.
	WinnerAssigned bool   `json:"winner_assigned,omitempty"`
	WinnerUserID   string `json:"winner_user_id,omitempty"`
	WinnerTotal    int    `json:"winner_total,omitempty"`
	Message        string `json:"message,omitempty"`
}

type CompetitionService struct {
	clock
	repo      competition.Repository
	board     leaderboardSource
	publisher CompletionPublisher
	metrics   CompetitionMetrics
	idGen     idgen.Generator
	logger    *logging.Logger
	workers   int
}

func NewCompetitionService(
	repo competition.Repository,
	board leaderboardSource,
	publisher CompletionPublisher,
	metrics CompetitionMetrics,
	idGen idgen.Generator,
	cfg CompetitionServiceConfig,
	logger *logging.Logger,
) *CompetitionService {
	if publisher == nil {
		publisher = NewNoopCompletionPublisher()
	}
	if metrics == nil {
		metrics = noopCompetitionMetrics{}
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.RefreshWorkers
	if workers <= 0 {
		workers = defaultRefreshWorkers
	}
	if workers > maxRefreshWorkers {
		workers = maxRefreshWorkers
	}

	return &CompetitionService{
		clock:     newClock(cfg.Location),
		repo:      repo,
		board:     board,
		publisher: publisher,
		metrics:   metrics,
		idGen:     idGen,
		logger:    logger,
		workers:   workers,
	}
}

// CreateMonthlyCompetition returns the existing competition for the month unchanged, or creates one
// as upcoming and transitions it against today. created reports which happened.
func (s *CompetitionService) CreateMonthlyCompetition(ctx context.Context, year, month int) (competition.Competition, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.CreateMonthlyCompetition", periodAttrs(year, month)...)
	defer span.End()

	if err := calendar.ValidateYearMonth(year, month); err != nil {
		return competition.Competition{}, false, classifyDomainError(err)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("generate competition id: %w", err)
	}
	draft, err := competition.NewMonthly(id, year, month, s.now().UTC())
	if err != nil {
		return competition.Competition{}, false, classifyDomainError(err)
	}

	stored, created, err := s.repo.Create(ctx, draft)
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("create competition %04d-%02d: %w", year, month, classifyDomainError(err))
	}
	if !created {
		return stored, false, nil
	}

	s.logger.InfoContext(ctx, "competition created", "competition_id", stored.ID, "name", stored.Name)

	updated, err := s.UpdateCompetitionStatus(ctx, stored)
	if err != nil {
		return stored, true, err
	}
	return updated, true, nil
}

// UpdateCompetitionStatus recomputes status against today under a per-record lock and determines
// the winner once the competition is completed.
func (s *CompetitionService) UpdateCompetitionStatus(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.UpdateCompetitionStatus", competitionAttr(c.ID))
	defer span.End()

	updated, _, err := s.refresh(ctx, c.ID)
	return updated, err
}

// DetermineWinner records the top leaderboard row as winner. It is a no-op once a winner is set
// and when the window has no entries.
func (s *CompetitionService) DetermineWinner(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.DetermineWinner", competitionAttr(c.ID))
	defer span.End()

	id, err := requireCompetitionID(c.ID)
	if err != nil {
		return competition.Competition{}, err
	}

	determined := false
	updated, err := s.repo.Mutate(ctx, id, func(cur *competition.Competition) (bool, error) {
		if cur.Status != competition.StatusCompleted {
			return false, fmt.Errorf("%w: competition %s is %s", ErrInvalidInput, cur.ID, cur.Status)
		}
		changed, err := s.assignWinner(ctx, cur)
		if err != nil {
			return false, err
		}
		if changed {
			cur.UpdatedAt = s.now().UTC()
			determined = true
		}
		return changed, nil
	})
	if err != nil {
		return competition.Competition{}, classifyDomainError(err)
	}
	if determined {
		s.metrics.WinnerDetermined()
	}
	return updated, nil
}

// GetCurrentCompetition finds the competition containing today and refreshes its status first.
func (s *CompetitionService) GetCurrentCompetition(ctx context.Context) (competition.Competition, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetCurrentCompetition")
	defer span.End()

	current, exists, err := s.repo.FindContaining(ctx, s.today())
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("find current competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, false, nil
	}

	refreshed, err := s.UpdateCompetitionStatus(ctx, current)
	if err != nil {
		return competition.Competition{}, false, err
	}
	return refreshed, true, nil
}

func (s *CompetitionService) GetLastCompletedCompetition(ctx context.Context) (competition.Competition, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetLastCompletedCompetition")
	defer span.End()

	last, exists, err := s.repo.LastCompleted(ctx)
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("get last completed competition: %w", err)
	}
	return last, exists, nil
}

func (s *CompetitionService) GetCompetition(ctx context.Context, id string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetCompetition", competitionAttr(id))
	defer span.End()

	id, err := requireCompetitionID(id)
	if err != nil {
		return competition.Competition{}, err
	}

	item, exists, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, id)
	}
	return item, nil
}

func (s *CompetitionService) ListCompetitions(ctx context.Context, statuses []competition.Status, limit int) ([]competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ListCompetitions")
	defer span.End()

	for _, st := range statuses {
		if _, err := competition.ParseStatus(string(st)); err != nil {
			return nil, classifyDomainError(err)
		}
	}

	items, err := s.repo.List(ctx, competition.ListFilter{Statuses: statuses, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return items, nil
}

// DaysRemaining counts the days left in c relative to today.
func (s *CompetitionService) DaysRemaining(c competition.Competition) int {
	return c.DaysRemaining(s.today())
}

// EnsureMonthlyCompetitions creates Months consecutive competitions starting at the given month.
func (s *CompetitionService) EnsureMonthlyCompetitions(ctx context.Context, input EnsureCompetitionsInput) (EnsureCompetitionsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.EnsureMonthlyCompetitions")
	defer span.End()

	year, month := input.Year, input.Month
	if year == 0 && month == 0 {
		year, month = s.currentMonth()
	} else if year == 0 {
		year, _ = s.currentMonth()
	} else if month == 0 {
		month = 1
	}
	if err := calendar.ValidateYearMonth(year, month); err != nil {
		return EnsureCompetitionsResult{}, classifyDomainError(err)
	}

	months := input.Months
	if months == 0 {
		months = defaultEnsureMonths
	}
	if months < 1 || months > maxEnsureMonths {
		return EnsureCompetitionsResult{}, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidInput, maxEnsureMonths)
	}

	result := EnsureCompetitionsResult{Items: make([]EnsureCompetition, 0, months)}
	for i := 0; i < months; i++ {
		if year > calendar.MaxYear {
			break
		}
		item, created, err := s.CreateMonthlyCompetition(ctx, year, month)
		if err != nil {
			return result, err
		}
		if created {
			result.CreatedCount++
		} else {
			result.ExistingCount++
		}
		result.Items = append(result.Items, EnsureCompetition{
			Competition: item,
			ID:          item.ID,
			Name:        item.Name,
			StartDate:   calendar.Format(item.StartDate),
			Status:      string(item.Status),
			Created:     created,
		})
		year, month = calendar.NextMonth(year, month)
	}

	return result, nil
}

// RefreshCompetitions updates every open competition concurrently. One failing record does not stop the rest.
func (s *CompetitionService) RefreshCompetitions(ctx context.Context) (RefreshCompetitionsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.RefreshCompetitions")
	defer span.End()

	open, err := s.repo.List(ctx, competition.ListFilter{OpenOnly: true})
	if err != nil {
		return RefreshCompetitionsResult{}, fmt.Errorf("list open competitions: %w", err)
	}

	workerCount := s.workers
	if workerCount > len(open) {
		workerCount = len(open)
	}
	result := RefreshCompetitionsResult{
		CheckedCount: len(open),
		WorkerCount:  workerCount,
		Items:        make([]RefreshCompetition, 0, len(open)),
	}
	if len(open) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshCompetitionsResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu           sync.Mutex
		workers      sync.WaitGroup
		failed       atomic.Int32
		transitioned atomic.Int32
	)
	collect := func(row RefreshCompetition) {
		mu.Lock()
		result.Items = append(result.Items, row)
		mu.Unlock()
	}

	for _, item := range open {
		workers.Add(1)
		submitErr := pool.Submit(func() {
			defer workers.Done()

			row := RefreshCompetition{ID: item.ID, Name: item.Name, From: string(item.Status)}
			updated, changed, err := s.refresh(ctx, item.ID)
			if err != nil {
				failed.Add(1)
				row.To = string(item.Status)
				row.Message = err.Error()
				s.logger.WarnContext(ctx, "refresh competition failed", "competition_id", item.ID, "error", err)
				collect(row)
				return
			}
			if changed {
				transitioned.Add(1)
			}
			row.To = string(updated.Status)
			if updated.HasWinner() {
				row.WinnerAssigned = !item.HasWinner()
				row.WinnerUserID = updated.Winner.UserID
				row.WinnerTotal = updated.Winner.Total
			}
			collect(row)
		})
		if submitErr != nil {
			workers.Done()
			failed.Add(1)
			collect(RefreshCompetition{ID: item.ID, Name: item.Name, From: string(item.Status), To: string(item.Status), Message: submitErr.Error()})
		}
	}
	workers.Wait()

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Name < result.Items[j].Name
	})
	result.FailedCount = int(failed.Load())
	result.TransitionedCount = int(transitioned.Load())

	s.logger.InfoContext(ctx, "competitions refreshed",
		"checked", result.CheckedCount,
		"transitioned", result.TransitionedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

// refresh is the per-record read-modify-write shared by status updates and the refresh job.
func (s *CompetitionService) refresh(ctx context.Context, id string) (competition.Competition, bool, error) {
	id, err := requireCompetitionID(id)
	if err != nil {
		return competition.Competition{}, false, err
	}

	today := s.today()
	var (
		from       competition.Status
		moved      bool
		determined bool
	)
	updated, err := s.repo.Mutate(ctx, id, func(cur *competition.Competition) (bool, error) {
		from = cur.Status
		moved = cur.Transition(today)
		changed := moved
		if cur.Status == competition.StatusCompleted {
			assigned, err := s.assignWinner(ctx, cur)
			if err != nil {
				return false, err
			}
			determined = assigned
			changed = changed || assigned
		}
		if changed {
			cur.UpdatedAt = s.now().UTC()
		}
		return changed, nil
	})
	if err != nil {
		return competition.Competition{}, false, classifyDomainError(err)
	}

	if moved {
		s.metrics.CompetitionTransitioned(from, updated.Status)
		s.logger.InfoContext(ctx, "competition status changed",
			"competition_id", updated.ID,
			"from", from,
			"to", updated.Status,
		)
	}
	if determined {
		s.metrics.WinnerDetermined()
		s.logger.InfoContext(ctx, "competition winner determined",
			"competition_id", updated.ID,
			"winner_user_id", updated.Winner.UserID,
			"winner_total", updated.Winner.Total,
		)
	}
	if moved && updated.Status == competition.StatusCompleted {
		if err := s.publisher.PublishCompetitionCompleted(ctx, updated); err != nil {
			s.logger.WarnContext(ctx, "publish competition completed failed", "competition_id", updated.ID, "error", err)
		}
	}

	return updated, moved || determined, nil
}

// assignWinner sets the winner from the leaderboard when none is recorded yet.
func (s *CompetitionService) assignWinner(ctx context.Context, c *competition.Competition) (bool, error) {
	if c.HasWinner() {
		return false, nil
	}

	year, month := c.YearMonth()
	rows, err := s.board.MonthlyLeaderboard(ctx, year, month)
	if err != nil {
		return false, fmt.Errorf("load leaderboard for %s: %w", c.ID, err)
	}
	if len(rows) == 0 || rows[0].Total <= 0 {
		return false, nil
	}

	c.Winner = &competition.Winner{UserID: rows[0].UserID, Total: rows[0].Total}
	return true, nil
}

func requireCompetitionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	return id, nil
}
