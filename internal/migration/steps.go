package migration

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(names ...string) error {
	for _, n := range names {
		if !identifier.MatchString(n) {
			return fmt.Errorf("invalid identifier %q", n)
		}
	}
	return nil
}

// TableExists reports whether table is present in the current schema.
func TableExists(ctx context.Context, exec sqlx.ExtContext, table string) (bool, error) {
	var query string
	switch exec.DriverName() {
	case "sqlite3":
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	case "postgres":
		query = `
			SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?
		`
	default:
		return false, fmt.Errorf("unsupported driver %q", exec.DriverName())
	}

	var n int
	if err := sqlx.GetContext(ctx, exec, &n, exec.Rebind(query), table); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// ColumnExists reports whether table has column.
func ColumnExists(ctx context.Context, exec sqlx.ExtContext, table, column string) (bool, error) {
	var query string
	switch exec.DriverName() {
	case "sqlite3":
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	case "postgres":
		query = `
			SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?
		`
	default:
		return false, fmt.Errorf("unsupported driver %q", exec.DriverName())
	}

	var n int
	if err := sqlx.GetContext(ctx, exec, &n, exec.Rebind(query), table, column); err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// AddColumnIfMissing returns a step that adds column to table unless it is
// already there. definition is the type and constraints, e.g.
// "VARCHAR(10) NOT NULL DEFAULT 'normal'".
func AddColumnIfMissing(table, column, definition string) Step {
	return func(ctx context.Context, exec sqlx.ExtContext) error {
		if err := checkIdent(table, column); err != nil {
			return err
		}

		exists, err := ColumnExists(ctx, exec, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, column, err)
		}
		return nil
	}
}

// CreateIndexIfMissing returns a step creating a plain index on columns.
func CreateIndexIfMissing(name, table string, columns ...string) Step {
	return func(ctx context.Context, exec sqlx.ExtContext) error {
		if err := checkIdent(append([]string{name, table}, columns...)...); err != nil {
			return err
		}
		if len(columns) == 0 {
			return fmt.Errorf("index %s has no columns", name)
		}

		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, strings.Join(columns, ", "))
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
		return nil
	}
}

// Steps runs several steps in order inside the same unit of work.
func Steps(steps ...Step) Step {
	return func(ctx context.Context, exec sqlx.ExtContext) error {
		for _, s := range steps {
			if err := s(ctx, exec); err != nil {
				return err
			}
		}
		return nil
	}
}
