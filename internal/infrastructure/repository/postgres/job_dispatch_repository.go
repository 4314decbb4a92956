package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/jobscheduler"
	qb "github.com/andrei73/pushup-counter/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const jobDispatchesTable = "job_dispatches"

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	trigger := strings.TrimSpace(event.Trigger)
	if trigger == "" {
		trigger = "manual"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := encodeJSONMap(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}
	resultJSON, err := encodeJSONMap(event.Result)
	if err != nil {
		return fmt.Errorf("marshal job dispatch result: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    jobName,
		Trigger:    trigger,
		Payload:    payloadJSON,
		Result:     resultJSON,
		Status:     string(event.Status),
		LastError:  optionalString(event.ErrorMessage),
		TraceID:    optionalString(event.TraceID),
		SpanID:     optionalString(event.SpanID),
	}

	switch event.Status {
	case jobscheduler.StatusRunning:
		model.StartedAt = &occurredAt
		model.LastError = nil
	case jobscheduler.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.LastError = nil
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
	}

	query, args, err := qb.InsertModel(jobDispatchesTable, model, `ON CONFLICT (dispatch_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    trigger = EXCLUDED.trigger,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    result = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.result
        ELSE job_dispatches.result
    END,
    started_at = CASE
        WHEN EXCLUDED.status = 'running' THEN EXCLUDED.started_at
        ELSE COALESCE(job_dispatches.started_at, EXCLUDED.started_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_dispatches.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_dispatches.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, job_dispatches.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, job_dispatches.span_id),
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]jobscheduler.DispatchEvent, error) {
	builder := qb.Select("*").From(jobDispatchesTable).OrderBy("updated_at DESC", "id DESC")
	if jobName = strings.TrimSpace(jobName); jobName != "" {
		builder = builder.Where(qb.Eq("job_name", jobName))
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job dispatches: %w", err)
	}

	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, jobDispatchFromRow(row))
	}
	return out, nil
}

func jobDispatchFromRow(row jobDispatchTableModel) jobscheduler.DispatchEvent {
	event := jobscheduler.DispatchEvent{
		DispatchID:   row.DispatchID,
		JobName:      row.JobName,
		Trigger:      row.Trigger,
		Status:       jobscheduler.DispatchStatus(row.Status),
		Payload:      decodeJSONMap(row.Payload),
		Result:       decodeJSONMap(row.Result),
		ErrorMessage: row.LastError.String,
		OccurredAt:   row.UpdatedAt.UTC(),
		TraceID:      row.TraceID.String,
		SpanID:       row.SpanID.String,
	}
	switch {
	case event.Status == jobscheduler.StatusCompleted && row.CompletedAt.Valid:
		event.OccurredAt = row.CompletedAt.Time.UTC()
	case event.Status == jobscheduler.StatusFailed && row.FailedAt.Valid:
		event.OccurredAt = row.FailedAt.Time.UTC()
	case row.StartedAt.Valid:
		event.OccurredAt = row.StartedAt.Time.UTC()
	}
	return event
}
