package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// MigrationsFS holds the embedded goose migrations. It is set by the
// migrations package at init time; import it for side effects:
//
//	import _ "github.com/teleinformatics/campus-core/migrations"
var MigrationsFS fs.FS

// MigrationsDir is the directory inside MigrationsFS holding the .sql files.
var MigrationsDir = "."

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// MigrationStatus describes the schema version of a database.
type MigrationStatus struct {
	Current int64 `json:"current"`
	Latest  int64 `json:"latest"`
}

// Pending reports whether migrations remain to be applied.
func (s MigrationStatus) Pending() bool {
	return s.Current < s.Latest
}

// Migrate applies all pending migrations.
func (db *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	return db.withGoose(logger, func() error {
		if err := goose.UpContext(ctx, db.DB, MigrationsDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context, logger *slog.Logger) error {
	return db.withGoose(logger, func() error {
		if err := goose.DownContext(ctx, db.DB, MigrationsDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	})
}

// MigrationStatus reports the applied and latest available versions.
func (db *DB) MigrationStatus(ctx context.Context) (MigrationStatus, error) {
	var status MigrationStatus

	err := db.withGoose(nil, func() error {
		current, err := goose.GetDBVersionContext(ctx, db.DB)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}

		migrations, err := goose.CollectMigrations(MigrationsDir, 0, goose.MaxVersion)
		if err != nil {
			return fmt.Errorf("collecting migrations: %w", err)
		}
		latest, err := migrations.Last()
		if err != nil {
			return fmt.Errorf("finding latest migration: %w", err)
		}

		status = MigrationStatus{Current: current, Latest: latest.Version}
		return nil
	})

	return status, err
}

func (db *DB) withGoose(logger *slog.Logger, fn func() error) error {
	if MigrationsFS == nil {
		return fmt.Errorf("no migrations registered: import the migrations package")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(MigrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if logger != nil {
		goose.SetLogger(gooseLogger{logger})
	} else {
		goose.SetLogger(goose.NopLogger())
	}

	return fn()
}

// gooseLogger routes goose progress output through slog.
type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(fmt.Sprintf(format, v...), "component", "migrate")
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(fmt.Sprintf(format, v...), "component", "migrate")
}
