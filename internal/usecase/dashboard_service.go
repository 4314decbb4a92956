package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/leaderboard"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/sourcegraph/conc/pool"
)

type Dashboard struct {
	UserID        string
	Year          int
	Month         int
	Today         time.Time
	TodayTotal    int
	LifetimeTotal int
	Stats         leaderboard.MonthlyStats
	Rank          UserRank
	Daily         []leaderboard.DayPoint
	Recent        []pushup.Entry
	Competition   *CompetitionSummary
}

type CompetitionSummary struct {
	Competition   competition.Competition
	DaysRemaining int
}

type Profile struct {
	UserID string
	Year   int
	Month  int
	Stats  leaderboard.MonthlyStats
	Rank   UserRank
	Recent []pushup.Entry
}

type dashboardStats interface {
	UserMonthlyStats(ctx context.Context, userID string, year, month int) (leaderboard.MonthlyStats, error)
	DailyBreakdown(ctx context.Context, userID string, year, month int) ([]leaderboard.DayPoint, error)
	LifetimeTotal(ctx context.Context, userID string) (int, error)
	DayTotal(ctx context.Context, userID string, day time.Time) (int, error)
	UserRank(ctx context.Context, userID string, year, month int) (UserRank, error)
}

type dashboardEntries interface {
	RecentEntries(ctx context.Context, userID string, limit int) ([]pushup.Entry, error)
}

type dashboardCompetitions interface {
	GetCurrentCompetition(ctx context.Context) (competition.Competition, bool, error)
}

// DashboardService composes the per-user landing views. Independent reads run concurrently.
type DashboardService struct {
	clock
	stats        dashboardStats
	entries      dashboardEntries
	competitions dashboardCompetitions
}

func NewDashboardService(
	stats dashboardStats,
	entries dashboardEntries,
	competitions dashboardCompetitions,
	location *time.Location,
) *DashboardService {
	return &DashboardService{
		clock:        newClock(location),
		stats:        stats,
		entries:      entries,
		competitions: competitions,
	}
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Dashboard", userAttr(userID))
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return Dashboard{}, err
	}

	today := s.today()
	out := Dashboard{
		UserID: userID,
		Year:   today.Year(),
		Month:  int(today.Month()),
		Today:  today,
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		stats, err := s.stats.UserMonthlyStats(ctx, userID, out.Year, out.Month)
		if err != nil {
			return fmt.Errorf("monthly stats: %w", err)
		}
		out.Stats = stats
		return nil
	})
	p.Go(func(ctx context.Context) error {
		daily, err := s.stats.DailyBreakdown(ctx, userID, out.Year, out.Month)
		if err != nil {
			return fmt.Errorf("daily breakdown: %w", err)
		}
		out.Daily = daily
		return nil
	})
	p.Go(func(ctx context.Context) error {
		total, err := s.stats.DayTotal(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("today total: %w", err)
		}
		out.TodayTotal = total
		return nil
	})
	p.Go(func(ctx context.Context) error {
		total, err := s.stats.LifetimeTotal(ctx, userID)
		if err != nil {
			return fmt.Errorf("lifetime total: %w", err)
		}
		out.LifetimeTotal = total
		return nil
	})
	p.Go(func(ctx context.Context) error {
		rank, err := s.stats.UserRank(ctx, userID, out.Year, out.Month)
		if err != nil {
			return fmt.Errorf("user rank: %w", err)
		}
		out.Rank = rank
		return nil
	})
	p.Go(func(ctx context.Context) error {
		recent, err := s.entries.RecentEntries(ctx, userID, defaultRecentEntries)
		if err != nil {
			return fmt.Errorf("recent entries: %w", err)
		}
		out.Recent = recent
		return nil
	})
	p.Go(func(ctx context.Context) error {
		current, exists, err := s.competitions.GetCurrentCompetition(ctx)
		if err != nil {
			return fmt.Errorf("current competition: %w", err)
		}
		if exists {
			out.Competition = &CompetitionSummary{
				Competition:   current,
				DaysRemaining: current.DaysRemaining(today),
			}
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return Dashboard{}, err
	}

	return out, nil
}

func (s *DashboardService) Profile(ctx context.Context, userID string) (Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Profile", userAttr(userID))
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return Profile{}, err
	}

	year, month := s.currentMonth()
	out := Profile{UserID: userID, Year: year, Month: month}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		stats, err := s.stats.UserMonthlyStats(ctx, userID, year, month)
		if err != nil {
			return fmt.Errorf("monthly stats: %w", err)
		}
		out.Stats = stats
		return nil
	})
	p.Go(func(ctx context.Context) error {
		rank, err := s.stats.UserRank(ctx, userID, year, month)
		if err != nil {
			return fmt.Errorf("user rank: %w", err)
		}
		out.Rank = rank
		return nil
	})
	p.Go(func(ctx context.Context) error {
		recent, err := s.entries.RecentEntries(ctx, userID, defaultRecentEntries)
		if err != nil {
			return fmt.Errorf("recent entries: %w", err)
		}
		out.Recent = recent
		return nil
	})
	if err := p.Wait(); err != nil {
		return Profile{}, err
	}

	return out, nil
}
