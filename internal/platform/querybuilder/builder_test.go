package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	from := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC)

	query, args, err := Select("user_id", "SUM(count) AS total").
		From("pushup_entries").
		Where(Gte("entry_date", from), Lte("entry_date", to)).
		GroupBy("user_id").
		OrderBy("total DESC", "user_id ASC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT user_id, SUM(count) AS total FROM pushup_entries WHERE entry_date >= $1 AND entry_date <= $2 GROUP BY user_id ORDER BY total DESC, user_id ASC LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != from || args[1] != to {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ForUpdateAndOffset(t *testing.T) {
	query, args, err := Select("id", "status").
		From("competitions").
		Where(Eq("id", "c1"), IsNull("winner_user_id")).
		Offset(5).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, status FROM competitions WHERE id = $1 AND winner_user_id IS NULL OFFSET 5 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := Select("id").From("t").GroupBy("id").ForUpdate().ToSQL(); err == nil {
		t.Fatalf("expected grouped for update to fail")
	}
}

func TestSelectBuilder_InAndExpr(t *testing.T) {
	query, args, err := Select("id").
		From("competitions").
		Where(
			In("status", []any{"upcoming", "active"}),
			Expr("(status <> ? OR winner_user_id IS NULL)", "completed"),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM competitions WHERE status IN ($1, $2) AND (status <> $3 OR winner_user_id IS NULL)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != "completed" {
		t.Fatalf("unexpected args: %+v", args)
	}

	query, _, err = Select("id").From("t").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build empty in query: %v", err)
	}
	if query != "SELECT id FROM t WHERE 1=0" {
		t.Fatalf("unexpected empty in query: %s", query)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("competitions").
		Columns("id", "name").
		Values("c1", "October 2025 Pushup Competition").
		Suffix("ON CONFLICT (start_date) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO competitions (id, name) VALUES ($1, $2) ON CONFLICT (start_date) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertInto("t").Columns("a", "b").Values(1).ToSQL(); err == nil {
		t.Fatalf("expected column/value mismatch error")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("pushup_entries").
		Set("count", 30).
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "e1"), Eq("user_id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE pushup_entries SET count = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 30 || args[2] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := Update("t").Set("a", 1).ToSQL(); err == nil {
		t.Fatalf("expected update without where to fail")
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("pushup_entries").
		Where(Eq("id", "e1"), Eq("user_id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM pushup_entries WHERE id = $1 AND user_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("t").ToSQL(); err == nil {
		t.Fatalf("expected delete without where to fail")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID      string `db:"id"`
		Count   int    `db:"count"`
		Ignored string `db:"-"`
		hidden  string
	}

	query, args, err := InsertModel("pushup_entries", row{ID: "e1", Count: 5, hidden: "x"}, "")
	if err != nil {
		t.Fatalf("insert model: %v", err)
	}
	if query != "INSERT INTO pushup_entries (id, count) VALUES ($1, $2)" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 || args[1] != 5 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("t", 42, ""); err == nil {
		t.Fatalf("expected non-struct model to fail")
	}
}
