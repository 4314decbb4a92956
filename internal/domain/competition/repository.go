package competition

import (
	"context"
	"time"
)

type ListFilter struct {
	Statuses []Status
	// OpenOnly selects competitions that are not completed or still lack a winner.
	OpenOnly bool
	Limit    int
}

// MutateFunc edits a locked competition and reports whether it should be written back.
type MutateFunc func(c *Competition) (bool, error)

type Repository interface {
	// Create inserts unless a competition with the same start date exists, in which case the
	// existing record is returned with created=false.
	Create(ctx context.Context, c Competition) (Competition, bool, error)
	GetByID(ctx context.Context, id string) (Competition, bool, error)
	GetByStartDate(ctx context.Context, start time.Time) (Competition, bool, error)
	FindContaining(ctx context.Context, day time.Time) (Competition, bool, error)
	LastCompleted(ctx context.Context) (Competition, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Competition, error)
	// Mutate serializes read-modify-write of one record.
	Mutate(ctx context.Context, id string, fn MutateFunc) (Competition, error)
}
