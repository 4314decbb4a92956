package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/leaderboard"
	competitionmock "github.com/andrei73/pushup-counter/internal/mocks/domain/competition"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
	"github.com/stretchr/testify/mock"
)

type staticBoard struct {
	rows []leaderboard.Row
}

func (b staticBoard) MonthlyLeaderboard(context.Context, int, int) ([]leaderboard.Row, error) {
	return b.rows, nil
}

func newMockedCompetitionService(t *testing.T, repo competition.Repository) *CompetitionService {
	t.Helper()
	svc := NewCompetitionService(
		repo,
		staticBoard{rows: []leaderboard.Row{{Rank: 1, UserID: "alice", Total: 10}}},
		nil,
		nil,
		idgen.NewSequenceGenerator("comp-"),
		CompetitionServiceConfig{Location: time.UTC},
		nil,
	)
	svc.now = fixedClock(fixedNow)
	return svc
}

func TestCompetitionService_CreateExistingSkipsRefreshUsingMockery(t *testing.T) {
	t.Parallel()

	repo := competitionmock.NewRepository(t)
	svc := newMockedCompetitionService(t, repo)
	existing := competition.Competition{
		ID:        "existing",
		Name:      "October 2025 Pushup Competition",
		StartDate: dateOf(2025, time.October, 1),
		EndDate:   dateOf(2025, time.October, 31),
		Status:    competition.StatusUpcoming,
	}

	repo.
		On("Create", mock.Anything, mock.MatchedBy(func(c competition.Competition) bool {
			return c.ID == "comp-1" && c.StartDate.Equal(existing.StartDate) && c.Status == competition.StatusUpcoming
		})).
		Return(existing, false, nil).
		Once()

	got, created, err := svc.CreateMonthlyCompetition(context.Background(), 2025, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created || got.ID != "existing" || got.Status != competition.StatusUpcoming {
		t.Fatalf("expected existing record untouched, got %+v created=%v", got, created)
	}
}

func TestCompetitionService_MutateConflictUsingMockery(t *testing.T) {
	t.Parallel()

	repo := competitionmock.NewRepository(t)
	svc := newMockedCompetitionService(t, repo)

	repo.
		On("Mutate", mock.Anything, "c-1", mock.Anything).
		Return(competition.Competition{}, competition.ErrConflict).
		Once()

	_, err := svc.UpdateCompetitionStatus(context.Background(), competition.Competition{ID: "c-1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCompetitionService_MutateAppliesTransitionUsingMockery(t *testing.T) {
	t.Parallel()

	repo := competitionmock.NewRepository(t)
	svc := newMockedCompetitionService(t, repo)
	stored := competition.Competition{
		ID:        "c-9",
		Name:      "September 2025 Pushup Competition",
		StartDate: dateOf(2025, time.September, 1),
		EndDate:   dateOf(2025, time.September, 30),
		Status:    competition.StatusActive,
	}

	repo.
		On("Mutate", mock.Anything, "c-9", mock.Anything).
		Return(func(_ context.Context, _ string, fn competition.MutateFunc) (competition.Competition, error) {
			cur := stored
			changed, err := fn(&cur)
			if err != nil {
				return competition.Competition{}, err
			}
			if !changed {
				t.Errorf("expected mutation to report a change")
			}
			return cur, nil
		}).
		Once()

	got, err := svc.UpdateCompetitionStatus(context.Background(), stored)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != competition.StatusCompleted || !got.HasWinner() || got.Winner.UserID != "alice" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("expected updated_at %s, got %s", fixedNow, got.UpdatedAt)
	}
}
