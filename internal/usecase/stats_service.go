package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/leaderboard"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

type UserRank struct {
	Rank        int
	Ranked      bool
	Total       int
	Competitors int
}

// StatsService answers read-only aggregate queries. Empty ranges yield zero values, never errors.
type StatsService struct {
	clock
	entries pushup.Repository
}

func NewStatsService(entries pushup.Repository, location *time.Location) *StatsService {
	return &StatsService{
		clock:   newClock(location),
		entries: entries,
	}
}

// CurrentMonth is the (year, month) of today in the configured zone.
func (s *StatsService) CurrentMonth() (int, int) {
	return s.currentMonth()
}

func (s *StatsService) MonthlyLeaderboard(ctx context.Context, year, month int) ([]leaderboard.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.MonthlyLeaderboard", periodAttrs(year, month)...)
	defer span.End()

	from, to, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	totals, err := s.entries.TotalsByUser(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("totals by user %04d-%02d: %w", year, month, err)
	}
	return leaderboard.Rank(totals), nil
}

func (s *StatsService) UserMonthlyTotal(ctx context.Context, userID string, year, month int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.UserMonthlyTotal", append(periodAttrs(year, month), userAttr(userID))...)
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return 0, err
	}
	from, to, err := monthBounds(year, month)
	if err != nil {
		return 0, err
	}

	total, err := s.entries.SumByUser(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("sum monthly entries: %w", err)
	}
	return total, nil
}

func (s *StatsService) UserMonthlyStats(ctx context.Context, userID string, year, month int) (leaderboard.MonthlyStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.UserMonthlyStats", append(periodAttrs(year, month), userAttr(userID))...)
	defer span.End()

	daily, err := s.monthDailyTotals(ctx, userID, year, month)
	if err != nil {
		return leaderboard.MonthlyStats{}, err
	}
	return leaderboard.Summarize(daily), nil
}

func (s *StatsService) DailyBreakdown(ctx context.Context, userID string, year, month int) ([]leaderboard.DayPoint, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.DailyBreakdown", append(periodAttrs(year, month), userAttr(userID))...)
	defer span.End()

	daily, err := s.monthDailyTotals(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	return leaderboard.DailySeries(year, month, daily), nil
}

func (s *StatsService) LifetimeTotal(ctx context.Context, userID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.LifetimeTotal", userAttr(userID))
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return 0, err
	}

	total, err := s.entries.SumByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("sum lifetime entries: %w", err)
	}
	return total, nil
}

func (s *StatsService) DayTotal(ctx context.Context, userID string, day time.Time) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.DayTotal", userAttr(userID))
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return 0, err
	}
	if day.IsZero() {
		day = s.today()
	}
	day = calendar.Date(day)

	total, err := s.entries.SumByUser(ctx, userID, day, day)
	if err != nil {
		return 0, fmt.Errorf("sum day entries: %w", err)
	}
	return total, nil
}

func (s *StatsService) UserRank(ctx context.Context, userID string, year, month int) (UserRank, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.UserRank", append(periodAttrs(year, month), userAttr(userID))...)
	defer span.End()

	userID, err := requireUserID(userID)
	if err != nil {
		return UserRank{}, err
	}
	rows, err := s.MonthlyLeaderboard(ctx, year, month)
	if err != nil {
		return UserRank{}, err
	}

	out := UserRank{Competitors: len(rows)}
	if row, ok := leaderboard.Find(rows, userID); ok {
		out.Rank = row.Rank
		out.Total = row.Total
		out.Ranked = true
	}
	return out, nil
}

func (s *StatsService) monthDailyTotals(ctx context.Context, userID string, year, month int) ([]pushup.DailyTotal, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	from, to, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	daily, err := s.entries.DailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily totals %04d-%02d: %w", year, month, err)
	}
	return daily, nil
}

func monthBounds(year, month int) (time.Time, time.Time, error) {
	from, to, err := calendar.MonthRange(year, month)
	if err != nil {
		return time.Time{}, time.Time{}, classifyDomainError(err)
	}
	return from, to, nil
}

func requireUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return userID, nil
}
