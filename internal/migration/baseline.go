package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/logger"
)

//go:embed sql
var baselineFiles embed.FS

// baselineTable is kept apart from the evolution ledger, which owns
// schema_migrations.
const baselineTable = "baseline_migrations"

func newBaseline(db *sqlx.DB) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)

	switch db.DriverName() {
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{MigrationsTable: baselineTable})
	case "postgres":
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: baselineTable})
	default:
		return nil, fmt.Errorf("unsupported driver %q", db.DriverName())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(baselineFiles, "sql/"+db.DriverName())
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Baseline brings the versioned base schema up to date. The migrate instance
// is left open because closing it closes db.
func Baseline(db *sqlx.DB) error {
	m, err := newBaseline(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run baseline migrations: %w", err)
	}
	return nil
}

// BaselineVersion returns the applied base schema version and dirty flag.
func BaselineVersion(db *sqlx.DB) (uint, bool, error) {
	m, err := newBaseline(db)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Migrate applies the baseline and then every evolution. It is safe to call
// on every startup.
func Migrate(ctx context.Context, db *sqlx.DB, log *logger.Logger) ([]string, error) {
	if err := Baseline(db); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	ledger, err := NewSQLLedger(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	return NewRunner(ledger, log, Evolutions()...).Run(ctx)
}
