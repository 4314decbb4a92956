package postgres

import (
	"database/sql"
	"time"
)

type jobDispatchInsertModel struct {
	DispatchID  string     `db:"dispatch_id"`
	JobName     string     `db:"job_name"`
	Trigger     string     `db:"trigger"`
	Payload     string     `db:"payload"`
	Result      string     `db:"result"`
	Status      string     `db:"status"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	LastError   *string    `db:"last_error"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
}

type jobDispatchTableModel struct {
	ID          int64          `db:"id"`
	DispatchID  string         `db:"dispatch_id"`
	JobName     string         `db:"job_name"`
	Trigger     string         `db:"trigger"`
	Payload     string         `db:"payload"`
	Result      string         `db:"result"`
	Status      string         `db:"status"`
	StartedAt   sql.NullTime   `db:"started_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	FailedAt    sql.NullTime   `db:"failed_at"`
	LastError   sql.NullString `db:"last_error"`
	TraceID     sql.NullString `db:"trace_id"`
	SpanID      sql.NullString `db:"span_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
