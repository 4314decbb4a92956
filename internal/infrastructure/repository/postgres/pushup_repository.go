package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	qb "github.com/andrei73/pushup-counter/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const pushupEntriesTable = "pushup_entries"

type PushupRepository struct {
	db *sqlx.DB
}

func NewPushupRepository(db *sqlx.DB) *PushupRepository {
	return &PushupRepository{db: db}
}

func (r *PushupRepository) Create(ctx context.Context, entry pushup.Entry) error {
	model := pushupEntryInsertModel{
		PublicID:  entry.ID,
		UserID:    entry.UserID,
		EntryDate: calendar.Date(entry.Date),
		Count:     entry.Count,
		Note:      optionalString(entry.Note),
		CreatedAt: entry.CreatedAt.UTC(),
		UpdatedAt: entry.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel(pushupEntriesTable, model, "")
	if err != nil {
		return fmt.Errorf("build insert pushup entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pushup entry id=%s: %w", entry.ID, err)
	}
	return nil
}

func (r *PushupRepository) Update(ctx context.Context, entry pushup.Entry) error {
	query, args, err := qb.Update(pushupEntriesTable).
		Set("entry_date", calendar.Date(entry.Date)).
		Set("count", entry.Count).
		Set("note", optionalString(entry.Note)).
		Set("updated_at", entry.UpdatedAt.UTC()).
		Where(
			qb.Eq("public_id", entry.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pushup entry query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update pushup entry id=%s: %w", entry.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update pushup entry id=%s: no rows affected", entry.ID)
	}
	return nil
}

// Delete soft-deletes the entry; aggregates skip deleted rows.
func (r *PushupRepository) Delete(ctx context.Context, entryID string) (bool, error) {
	query, args, err := qb.Update(pushupEntriesTable).
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("public_id", entryID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete pushup entry query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete pushup entry id=%s: %w", entryID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pushup entry id=%s rows affected: %w", entryID, err)
	}
	return n > 0, nil
}

func (r *PushupRepository) GetByID(ctx context.Context, entryID string) (pushup.Entry, bool, error) {
	query, args, err := qb.Select("*").From(pushupEntriesTable).
		Where(
			qb.Eq("public_id", entryID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return pushup.Entry{}, false, fmt.Errorf("build get pushup entry query: %w", err)
	}

	var row pushupEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pushup.Entry{}, false, nil
		}
		return pushup.Entry{}, false, fmt.Errorf("get pushup entry id=%s: %w", entryID, err)
	}
	return pushupEntryFromRow(row), true, nil
}

func (r *PushupRepository) ListByUser(ctx context.Context, userID string, filter pushup.HistoryFilter) ([]pushup.Entry, error) {
	conds := []qb.Condition{
		qb.Eq("user_id", userID),
		qb.IsNull("deleted_at"),
	}
	if filter.Year > 0 {
		from, to, err := historyBounds(filter.Year, filter.Month)
		if err != nil {
			return nil, err
		}
		conds = append(conds, qb.Gte("entry_date", from), qb.Lte("entry_date", to))
	} else if filter.Month > 0 {
		conds = append(conds, qb.Expr("EXTRACT(MONTH FROM entry_date) = ?", filter.Month))
	}

	builder := qb.Select("*").From(pushupEntriesTable).
		Where(conds...).
		OrderBy("entry_date DESC", "created_at DESC", "public_id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pushup entries query: %w", err)
	}

	var rows []pushupEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pushup entries user=%s: %w", userID, err)
	}

	out := make([]pushup.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, pushupEntryFromRow(row))
	}
	return out, nil
}

func (r *PushupRepository) ListYears(ctx context.Context, userID string) ([]int, error) {
	query, args, err := qb.Select("DISTINCT EXTRACT(YEAR FROM entry_date)::int AS year").From(pushupEntriesTable).
		Where(
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("year DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pushup years query: %w", err)
	}

	var years []int
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, fmt.Errorf("list pushup years user=%s: %w", userID, err)
	}
	return years, nil
}

func (r *PushupRepository) SumByUser(ctx context.Context, userID string, from, to time.Time) (int, error) {
	conds := append([]qb.Condition{qb.Eq("user_id", userID)}, rangeConditions(from, to)...)
	query, args, err := qb.Select("COALESCE(SUM(count), 0)").From(pushupEntriesTable).
		Where(conds...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build sum pushup entries query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum pushup entries user=%s: %w", userID, err)
	}
	return total, nil
}

func (r *PushupRepository) DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]pushup.DailyTotal, error) {
	conds := append([]qb.Condition{qb.Eq("user_id", userID)}, rangeConditions(from, to)...)
	query, args, err := qb.Select("entry_date", "SUM(count) AS total").From(pushupEntriesTable).
		Where(conds...).
		GroupBy("entry_date").
		OrderBy("entry_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build daily totals query: %w", err)
	}

	var rows []dailyTotalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select daily totals user=%s: %w", userID, err)
	}

	out := make([]pushup.DailyTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, pushup.DailyTotal{Date: calendar.Date(row.EntryDate), Total: row.Total})
	}
	return out, nil
}

func (r *PushupRepository) TotalsByUser(ctx context.Context, from, to time.Time) ([]pushup.UserTotal, error) {
	query, args, err := qb.Select("user_id", "SUM(count) AS total").From(pushupEntriesTable).
		Where(rangeConditions(from, to)...).
		GroupBy("user_id").
		OrderBy("total DESC", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build totals by user query: %w", err)
	}

	var rows []userTotalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select totals by user: %w", err)
	}

	out := make([]pushup.UserTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, pushup.UserTotal{UserID: row.UserID, Total: row.Total})
	}
	return out, nil
}

func pushupEntryFromRow(row pushupEntryTableModel) pushup.Entry {
	return pushup.Entry{
		ID:        row.PublicID,
		UserID:    row.UserID,
		Date:      calendar.Date(row.EntryDate),
		Count:     row.Count,
		Note:      strings.TrimSpace(row.Note.String),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

// rangeConditions always excludes deleted rows; zero bounds are open.
func rangeConditions(from, to time.Time) []qb.Condition {
	conds := []qb.Condition{qb.IsNull("deleted_at")}
	if !from.IsZero() {
		conds = append(conds, qb.Gte("entry_date", calendar.Date(from)))
	}
	if !to.IsZero() {
		conds = append(conds, qb.Lte("entry_date", calendar.Date(to)))
	}
	return conds
}

func historyBounds(year, month int) (time.Time, time.Time, error) {
	if month == 0 {
		from, _, err := calendar.MonthRange(year, 1)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		_, to, err := calendar.MonthRange(year, 12)
		return from, to, err
	}
	return calendar.MonthRange(year, month)
}
