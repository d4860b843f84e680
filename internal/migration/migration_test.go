package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/installment-engine/internal/logger"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApply_RunsOnce(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(nil)
	calls := 0
	step := func(context.Context, sqlx.ExtContext) error {
		calls++
		return nil
	}

	applied, err := Apply(ctx, ledger, "001_test", step)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = Apply(ctx, ledger, "001_test", step)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, 1, calls)
	ids, err := ledger.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_test"}, ids)
}

func TestApply_FailedStepIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(nil)
	boom := errors.New("boom")

	_, err := Apply(ctx, ledger, "001_broken", func(context.Context, sqlx.ExtContext) error { return boom })
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.ErrorIs(t, err, boom)

	ok, err := ledger.Contains(ctx, "001_broken")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Apply(ctx, ledger, "", func(context.Context, sqlx.ExtContext) error { return nil })
	assert.ErrorIs(t, err, ErrMigrationFailed)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(nil)
	boom := errors.New("disk full")
	var ran []string

	step := func(id string, err error) Step {
		return func(context.Context, sqlx.ExtContext) error {
			ran = append(ran, id)
			return err
		}
	}

	runner := NewRunner(ledger, logger.NewNop(),
		Migration{ID: "001", Step: step("001", nil)},
		Migration{ID: "002", Step: step("002", boom)},
		Migration{ID: "003", Step: step("003", nil)},
	)

	applied, err := runner.Run(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.Equal(t, []string{"001"}, applied)
	assert.Equal(t, []string{"001", "002"}, ran)

	ids, _ := ledger.Applied(ctx)
	assert.Equal(t, []string{"001"}, ids)
}

func TestRunner_RejectsDuplicateIDs(t *testing.T) {
	noop := func(context.Context, sqlx.ExtContext) error { return nil }
	runner := NewRunner(NewMemoryLedger(nil), nil,
		Migration{ID: "001", Step: noop},
		Migration{ID: "001", Step: noop},
	)

	_, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrMigrationFailed)
}

func TestMigrate_SQLiteIsReplayable(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	applied, err := Migrate(ctx, db, logger.NewNop())
	require.NoError(t, err)
	assert.Len(t, applied, len(Evolutions()))

	applied, err = Migrate(ctx, db, logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, applied)

	ledger, err := NewSQLLedger(ctx, db)
	require.NoError(t, err)
	ids, err := ledger.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_policy_terms", "002_installment_tracking", "003_reminder_details", "004_status_indexes"}, ids)

	for _, col := range [][2]string{
		{"policies", "down_payment"},
		{"installments", "is_reminder_sent"},
		{"reminders", "recurrence"},
	} {
		ok, err := ColumnExists(ctx, db, col[0], col[1])
		require.NoError(t, err)
		assert.True(t, ok, "%s.%s", col[0], col[1])
	}

	version, dirty, err := BaselineVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestAddColumnIfMissing_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, Baseline(db))

	step := AddColumnIfMissing("policies", "branch_code", "VARCHAR(10)")
	require.NoError(t, step(ctx, db))
	require.NoError(t, step(ctx, db))

	ok, err := ColumnExists(ctx, db, "policies", "branch_code")
	require.NoError(t, err)
	assert.True(t, ok)

	err = AddColumnIfMissing("policies; DROP TABLE policies", "x", "TEXT")(ctx, db)
	assert.Error(t, err)
}

func TestTableExists(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, Baseline(db))

	ok, err := TableExists(ctx, db, "installments")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TableExists(ctx, db, "premiums")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLLedger_StepAndRecordAreAtomic(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, Baseline(db))

	ledger, err := NewSQLLedger(ctx, db)
	require.NoError(t, err)

	failing := func(ctx context.Context, exec sqlx.ExtContext) error {
		if err := AddColumnIfMissing("policies", "agent_name", "TEXT")(ctx, exec); err != nil {
			return err
		}
		return errors.New("second statement failed")
	}

	_, err = Apply(ctx, ledger, "005_agent", failing)
	require.Error(t, err)

	ok, err := ColumnExists(ctx, db, "policies", "agent_name")
	require.NoError(t, err)
	assert.False(t, ok, "column change must roll back with the ledger entry")

	ok, err = ledger.Contains(ctx, "005_agent")
	require.NoError(t, err)
	assert.False(t, ok)

	applied, err := Apply(ctx, ledger, "005_agent", AddColumnIfMissing("policies", "agent_name", "TEXT"))
	require.NoError(t, err)
	assert.True(t, applied)
}
