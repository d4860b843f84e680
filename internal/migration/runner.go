package migration

import (
	"context"
	"fmt"

	"github.com/segyhp/installment-engine/internal/logger"
	"github.com/segyhp/installment-engine/internal/metrics"
)

// Migration is one named additive change.
type Migration struct {
	ID          string
	Description string
	Step        Step
}

// Runner applies an ordered list of migrations against a ledger.
type Runner struct {
	ledger     Ledger
	migrations []Migration
	log        *logger.Logger
}

func NewRunner(ledger Ledger, log *logger.Logger, migrations ...Migration) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		ledger:     ledger,
		migrations: migrations,
		log:        log.WithComponent("migration"),
	}
}

// Run applies every pending migration in order and returns the identifiers
// it applied. The first failure stops the run; later migrations are not
// attempted.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool, len(r.migrations))
	for _, m := range r.migrations {
		if seen[m.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrMigrationFailed, m.ID)
		}
		seen[m.ID] = true
	}

	var applied []string
	for _, m := range r.migrations {
		ok, err := Apply(ctx, r.ledger, m.ID, m.Step)
		if err != nil {
			r.log.Errorw("Migration failed", "version", m.ID, "error", err)
			return applied, err
		}
		if !ok {
			r.log.Debugw("Migration already applied, skipping", "version", m.ID)
			continue
		}

		metrics.SchemaMigrationsApplied.Inc()
		r.log.Infow("Migration applied", "version", m.ID, "description", m.Description)
		applied = append(applied, m.ID)
	}

	return applied, nil
}
