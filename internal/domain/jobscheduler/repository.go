package jobscheduler

import "context"

// Repository stores one row per DispatchID; a later status for the same id replaces the earlier one.
type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	// ListRecent orders by OccurredAt descending. An empty jobName matches every job.
	ListRecent(ctx context.Context, jobName string, limit int) ([]DispatchEvent, error)
}
