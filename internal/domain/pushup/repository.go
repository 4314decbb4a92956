package pushup

import (
	"context"
	"time"
)

// Repository stores entries and answers the aggregate queries. Zero from/to bounds are unbounded.
type Repository interface {
	Create(ctx context.Context, entry Entry) error
	Update(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, entryID string) (bool, error)
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)
	ListByUser(ctx context.Context, userID string, filter HistoryFilter) ([]Entry, error)
	ListYears(ctx context.Context, userID string) ([]int, error)
	SumByUser(ctx context.Context, userID string, from, to time.Time) (int, error)
	DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]DailyTotal, error)
	TotalsByUser(ctx context.Context, from, to time.Time) ([]UserTotal, error)
}
