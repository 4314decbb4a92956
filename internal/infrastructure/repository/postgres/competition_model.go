package postgres

import (
	"database/sql"
	"time"
)

type competitionTableModel struct {
	ID           int64          `db:"id"`
	PublicID     string         `db:"public_id"`
	Name         string         `db:"name"`
	StartDate    time.Time      `db:"start_date"`
	EndDate      time.Time      `db:"end_date"`
	Status       string         `db:"status"`
	WinnerUserID sql.NullString `db:"winner_user_id"`
	WinnerTotal  sql.NullInt64  `db:"winner_total"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type competitionInsertModel struct {
	PublicID     string    `db:"public_id"`
	Name         string    `db:"name"`
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
	Status       string    `db:"status"`
	WinnerUserID *string   `db:"winner_user_id"`
	WinnerTotal  *int64    `db:"winner_total"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
