package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/andrei73/pushup-counter/db/migrations"
	"github.com/andrei73/pushup-counter/internal/app"
	"github.com/andrei73/pushup-counter/internal/config"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

type cli struct {
	DBURL string `name:"db-url" env:"DB_URL" help:"Postgres connection URL."`
	Dir   string `name:"dir" env:"MIGRATIONS_DIR" help:"Read migrations from this directory instead of the embedded set."`

	Up      upCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    downCmd    `cmd:"" help:"Roll back migrations."`
	Version versionCmd `cmd:"" help:"Print the current schema version."`
	Force   forceCmd   `cmd:"" help:"Set the schema version without running migrations."`
	Goto    gotoCmd    `cmd:"" aliases:"migrate" help:"Migrate up or down to a target version."`
}

type runContext struct {
	migrator *migrate.Migrate
	logger   *logging.Logger
}

type upCmd struct{}

func (upCmd) Run(rc *runContext) error {
	if err := ignoreNoChange(rc, rc.migrator.Up()); err != nil {
		return err
	}
	rc.logger.Info("migrations applied")
	return nil
}

type downCmd struct {
	Steps int `arg:"" optional:"" default:"1" help:"Number of migrations to roll back."`
}

func (c downCmd) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("down steps must be > 0")
	}
	return nil
}

func (c downCmd) Run(rc *runContext) error {
	if err := ignoreNoChange(rc, rc.migrator.Steps(-c.Steps)); err != nil {
		return err
	}
	rc.logger.Info("migrations rolled back", "steps", c.Steps)
	return nil
}

type versionCmd struct{}

func (versionCmd) Run(rc *runContext) error {
	version, dirty, err := rc.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

type forceCmd struct {
	Version int `arg:"" help:"Version to record."`
}

func (c forceCmd) Validate() error {
	if c.Version < 0 {
		return fmt.Errorf("version must be >= 0")
	}
	return nil
}

func (c forceCmd) Run(rc *runContext) error {
	if err := rc.migrator.Force(c.Version); err != nil {
		return fmt.Errorf("force version %d: %w", c.Version, err)
	}
	rc.logger.Info("forced schema version", "version", c.Version)
	return nil
}

type gotoCmd struct {
	Version uint `arg:"" help:"Target version."`
}

func (c gotoCmd) Run(rc *runContext) error {
	if err := ignoreNoChange(rc, rc.migrator.Migrate(c.Version)); err != nil {
		return err
	}
	rc.logger.Info("migrated to version", "version", c.Version)
	return nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var args cli
	kctx := kong.Parse(&args,
		kong.Name(filepath.Base(os.Args[0])),
		kong.Description("Manage the pushup-counter database schema."),
		kong.UsageOnError(),
	)

	logger := logging.New(logging.Options{Level: logging.LevelInfo, Format: logging.FormatConsole, Output: os.Stderr})

	m, err := newMigrator(args.DBURL, args.Dir)
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}
	defer closeMigrator(m, logger)

	if err := kctx.Run(&runContext{migrator: m, logger: logger}); err != nil {
		logger.Error("migration failed", "command", kctx.Command(), "error", err)
		closeMigrator(m, logger)
		os.Exit(1)
	}
}

func newMigrator(dbURL, dir string) (*migrate.Migrate, error) {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	dbURL = app.DatabaseURL(config.Config{DBURL: dbURL, ServiceName: "pushup-counter-migration"})

	if dir = strings.TrimSpace(dir); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve migrations dir: %w", err)
		}
		return migrate.New("file://"+filepath.ToSlash(abs), dbURL)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", source, dbURL)
}

func ignoreNoChange(rc *runContext, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		rc.logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}
