package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database/migrations"
)

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.sugar.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.sugar.Fatalf(format, v...) }

func prepareGoose(db *sqlx.DB, logger *zap.SugaredLogger) (string, error) {
	var dialect, dir string
	switch db.DriverName() {
	case DriverSQLite:
		dialect, dir = "sqlite3", "sqlite"
	case DriverPostgres:
		dialect, dir = "postgres", "postgres"
	default:
		return "", fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if logger != nil {
		goose.SetLogger(gooseLogger{sugar: logger})
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	return dir, nil
}

// Migrate applies all pending migrations for the connection's dialect.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.SugaredLogger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepareGoose(db, logger)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sqlx.DB, logger *zap.SugaredLogger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepareGoose(db, logger)
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(ctx context.Context, db *sqlx.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if _, err := prepareGoose(db, nil); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	return v, nil
}
