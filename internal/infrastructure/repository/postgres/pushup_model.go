package postgres

import (
	"database/sql"
	"time"
)

type pushupEntryTableModel struct {
	ID        int64          `db:"id"`
	PublicID  string         `db:"public_id"`
	UserID    string         `db:"user_id"`
	EntryDate time.Time      `db:"entry_date"`
	Count     int            `db:"count"`
	Note      sql.NullString `db:"note"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DeletedAt *time.Time     `db:"deleted_at"`
}

type pushupEntryInsertModel struct {
	PublicID  string    `db:"public_id"`
	UserID    string    `db:"user_id"`
	EntryDate time.Time `db:"entry_date"`
	Count     int       `db:"count"`
	Note      *string   `db:"note"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type dailyTotalRow struct {
	EntryDate time.Time `db:"entry_date"`
	Total     int       `db:"total"`
}

type userTotalRow struct {
	UserID string `db:"user_id"`
	Total  int    `db:"total"`
}
