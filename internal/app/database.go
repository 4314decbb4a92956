package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andrei73/pushup-counter/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// maxTracedQueryLength caps db.statement span attributes, in bytes.
const maxTracedQueryLength = 512

var (
	sqlLineComment = regexp.MustCompile(`--[^\n]*`)
	sqlWhitespace  = regexp.MustCompile(`\s+`)
)

// DatabaseURL returns DB_URL tagged with the service name so connections are attributable in pg_stat_activity.
func DatabaseURL(cfg config.Config) string {
	return withApplicationName(cfg.DBURL, cfg.ServiceName)
}

func openDatabase(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := DatabaseURL(cfg)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(databaseName(dsn)),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	return db, nil
}

// withApplicationName accepts both postgres:// URLs and keyword DSNs. An explicit application_name wins.
func withApplicationName(dsn, name string) string {
	dsn = strings.TrimSpace(dsn)
	name = strings.TrimSpace(name)
	if dsn == "" || name == "" {
		return dsn
	}

	if u, ok := parsePostgresURL(dsn); ok {
		q := u.Query()
		if q.Has("application_name") {
			return dsn
		}
		q.Set("application_name", name)
		u.RawQuery = q.Encode()
		return u.String()
	}

	if _, ok := dsnKeyword(dsn, "application_name"); ok {
		return dsn
	}
	return dsn + " application_name=" + name
}

// databaseName feeds the db.name span attribute; empty when the DSN names no database.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if u, ok := parsePostgresURL(dsn); ok {
		if name := strings.Trim(u.Path, "/ "); name != "" {
			return name
		}
	}
	name, _ := dsnKeyword(dsn, "dbname")
	return name
}

func parsePostgresURL(dsn string) (*url.URL, bool) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	return u, true
}

func dsnKeyword(dsn, key string) (string, bool) {
	for _, field := range strings.Fields(dsn) {
		k, v, found := strings.Cut(field, "=")
		if !found || k != key {
			continue
		}
		v = strings.Trim(v, `"'`)
		return v, v != ""
	}
	return "", false
}

// traceQuery drops line comments and collapses whitespace. Long statements are cut on a rune boundary.
func traceQuery(query string) string {
	query = sqlLineComment.ReplaceAllString(query, "")
	query = strings.TrimSpace(sqlWhitespace.ReplaceAllString(query, " "))
	if len(query) <= maxTracedQueryLength {
		return query
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut] + "..."
}
