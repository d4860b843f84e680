// Package migration applies additive schema changes exactly once.
//
// A Ledger remembers which change identifiers have been applied. Apply skips
// an identifier already in the ledger; otherwise it runs the step and records
// the identifier in the same unit of work. Steps are written to be no-ops when
// their change is already present, so a crash between the two halves is safe
// to retry.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrMigrationFailed wraps any error that aborts an evolution run.
var ErrMigrationFailed = errors.New("migration failed")

// Step performs one additive change. SQL ledgers pass the open transaction
// as exec; MemoryLedger passes whatever executor it was built with, which may
// be nil.
type Step func(ctx context.Context, exec sqlx.ExtContext) error

type Ledger interface {
	Contains(ctx context.Context, id string) (bool, error)

	// Record runs step and stores id as one atomic unit. It returns false
	// without running step when id is already present.
	Record(ctx context.Context, id string, step Step) (bool, error)

	// Applied lists recorded identifiers in ascending order.
	Applied(ctx context.Context) ([]string, error)
}

// Apply runs step unless id is already recorded in ledger.
func Apply(ctx context.Context, ledger Ledger, id string, step Step) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: empty migration id", ErrMigrationFailed)
	}

	done, err := ledger.Contains(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: check %s: %v", ErrMigrationFailed, id, err)
	}
	if done {
		return false, nil
	}

	applied, err := ledger.Record(ctx, id, step)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrMigrationFailed, id, err)
	}
	return applied, nil
}

// MemoryLedger keeps the applied set in memory.
type MemoryLedger struct {
	mu      sync.Mutex
	exec    sqlx.ExtContext
	applied map[string]time.Time
}

// NewMemoryLedger returns an empty ledger whose steps receive exec.
func NewMemoryLedger(exec sqlx.ExtContext) *MemoryLedger {
	return &MemoryLedger{exec: exec, applied: make(map[string]time.Time)}
}

func (l *MemoryLedger) Contains(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.applied[id]
	return ok, nil
}

func (l *MemoryLedger) Record(ctx context.Context, id string, step Step) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.applied[id]; ok {
		return false, nil
	}
	if err := step(ctx, l.exec); err != nil {
		return false, err
	}
	l.applied[id] = time.Now()
	return true, nil
}

func (l *MemoryLedger) Applied(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.applied))
	for id := range l.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

const ledgerTable = "schema_migrations"

// SQLLedger stores applied identifiers in the schema_migrations table.
type SQLLedger struct {
	db *sqlx.DB
}

// NewSQLLedger creates the ledger table when it is missing.
func NewSQLLedger(ctx context.Context, db *sqlx.DB) (*SQLLedger, error) {
	query := `
		CREATE TABLE IF NOT EXISTS ` + ledgerTable + ` (
			version VARCHAR(50) NOT NULL UNIQUE,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("create %s: %w", ledgerTable, err)
	}
	return &SQLLedger{db: db}, nil
}

func (l *SQLLedger) Contains(ctx context.Context, id string) (bool, error) {
	return contains(ctx, l.db, id)
}

func (l *SQLLedger) Record(ctx context.Context, id string, step Step) (bool, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Another process may have recorded id since Contains was called.
	done, err := contains(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	if err := step(ctx, tx); err != nil {
		return false, err
	}

	query := tx.Rebind(`INSERT INTO ` + ledgerTable + ` (version, applied_at) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("record %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *SQLLedger) Applied(ctx context.Context) ([]string, error) {
	var ids []string
	query := `SELECT version FROM ` + ledgerTable + ` ORDER BY version`
	if err := l.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}

func contains(ctx context.Context, q sqlx.ExtContext, id string) (bool, error) {
	var n int
	query := q.Rebind(`SELECT COUNT(*) FROM ` + ledgerTable + ` WHERE version = ?`)
	if err := sqlx.GetContext(ctx, q, &n, query, id); err != nil {
		return false, err
	}
	return n > 0, nil
}
