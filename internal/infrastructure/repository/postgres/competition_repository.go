package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	qb "github.com/andrei73/pushup-counter/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const competitionsTable = "competitions"

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// Create relies on the unique start_date index; a concurrent creator loses and reads the winner's row.
func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) (competition.Competition, bool, error) {
	if err := c.Validate(); err != nil {
		return competition.Competition{}, false, err
	}

	query, args, err := qb.InsertModel(competitionsTable, competitionInsertFromDomain(c), "ON CONFLICT (start_date) DO NOTHING")
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build insert competition query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("insert competition start=%s: %w", calendar.Format(c.StartDate), mapLockError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return c, true, nil
	}

	existing, exists, err := r.GetByStartDate(ctx, c.StartDate)
	if err != nil {
		return competition.Competition{}, false, err
	}
	if !exists {
		return competition.Competition{}, false, fmt.Errorf("%w: competition start=%s vanished after conflict", competition.ErrConflict, calendar.Format(c.StartDate))
	}
	return existing, false, nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, id string) (competition.Competition, bool, error) {
	return r.getOne(ctx, "get competition by id", qb.Eq("public_id", id))
}

func (r *CompetitionRepository) GetByStartDate(ctx context.Context, start time.Time) (competition.Competition, bool, error) {
	return r.getOne(ctx, "get competition by start date", qb.Eq("start_date", calendar.Date(start)))
}

func (r *CompetitionRepository) FindContaining(ctx context.Context, day time.Time) (competition.Competition, bool, error) {
	day = calendar.Date(day)
	query, args, err := qb.Select("*").From(competitionsTable).
		Where(
			qb.Lte("start_date", day),
			qb.Gte("end_date", day),
		).
		OrderBy("start_date DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build find containing competition query: %w", err)
	}
	return r.getRow(ctx, r.db, "find containing competition", query, args)
}

func (r *CompetitionRepository) LastCompleted(ctx context.Context) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From(competitionsTable).
		Where(qb.Eq("status", string(competition.StatusCompleted))).
		OrderBy("end_date DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build last completed competition query: %w", err)
	}
	return r.getRow(ctx, r.db, "get last completed competition", query, args)
}

func (r *CompetitionRepository) List(ctx context.Context, filter competition.ListFilter) ([]competition.Competition, error) {
	conds := make([]qb.Condition, 0, 2)
	if len(filter.Statuses) > 0 {
		values := make([]any, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			values = append(values, string(s))
		}
		conds = append(conds, qb.In("status", values))
	}
	if filter.OpenOnly {
		conds = append(conds, qb.Expr("(status <> ? OR winner_user_id IS NULL)", string(competition.StatusCompleted)))
	}

	builder := qb.Select("*").From(competitionsTable).OrderBy("start_date DESC")
	if len(conds) > 0 {
		builder = builder.Where(conds...)
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competitions query: %w", err)
	}

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, competitionFromRow(row))
	}
	return out, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE so concurrent refreshers see each other's writes.
func (r *CompetitionRepository) Mutate(ctx context.Context, id string, fn competition.MutateFunc) (competition.Competition, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("begin tx mutate competition: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select("*").From(competitionsTable).
		Where(qb.Eq("public_id", id)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("build lock competition query: %w", err)
	}
	current, exists, err := r.getRow(ctx, tx, "lock competition", query, args)
	if err != nil {
		return competition.Competition{}, err
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: %s", competition.ErrNotFound, id)
	}

	changed, err := fn(&current)
	if err != nil {
		return competition.Competition{}, err
	}
	if !changed {
		return current, nil
	}
	if err := current.Validate(); err != nil {
		return competition.Competition{}, err
	}

	model := competitionInsertFromDomain(current)
	updateQuery, updateArgs, err := qb.Update(competitionsTable).
		Set("status", model.Status).
		Set("winner_user_id", model.WinnerUserID).
		Set("winner_total", model.WinnerTotal).
		Set("updated_at", model.UpdatedAt).
		Where(qb.Eq("public_id", id)).
		ToSQL()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("build update competition query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return competition.Competition{}, fmt.Errorf("update competition id=%s: %w", id, mapLockError(err))
	}

	if err := tx.Commit(); err != nil {
		return competition.Competition{}, fmt.Errorf("commit mutate competition tx: %w", mapLockError(err))
	}
	return current, nil
}

func (r *CompetitionRepository) getOne(ctx context.Context, op string, cond qb.Condition) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From(competitionsTable).Where(cond).ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build %s query: %w", op, err)
	}
	return r.getRow(ctx, r.db, op, query, args)
}

func (r *CompetitionRepository) getRow(ctx context.Context, q sqlx.QueryerContext, op, query string, args []any) (competition.Competition, bool, error) {
	var row competitionTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("%s: %w", op, mapLockError(err))
	}
	return competitionFromRow(row), true, nil
}

func competitionFromRow(row competitionTableModel) competition.Competition {
	out := competition.Competition{
		ID:        row.PublicID,
		Name:      row.Name,
		StartDate: calendar.Date(row.StartDate),
		EndDate:   calendar.Date(row.EndDate),
		Status:    competition.Status(strings.TrimSpace(row.Status)),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.WinnerUserID.Valid && strings.TrimSpace(row.WinnerUserID.String) != "" {
		out.Winner = &competition.Winner{
			UserID: row.WinnerUserID.String,
			Total:  int(row.WinnerTotal.Int64),
		}
	}
	return out
}

func competitionInsertFromDomain(c competition.Competition) competitionInsertModel {
	model := competitionInsertModel{
		PublicID:  c.ID,
		Name:      c.Name,
		StartDate: calendar.Date(c.StartDate),
		EndDate:   calendar.Date(c.EndDate),
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
	if c.HasWinner() {
		model.WinnerUserID = optionalString(c.Winner.UserID)
		model.WinnerTotal = nullableInt64(int64(c.Winner.Total))
	}
	return model
}
