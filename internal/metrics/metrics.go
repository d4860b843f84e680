package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StatusTransitions counts installment status changes by source and target.
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installment_status_transitions_total",
			Help: "Installment status transitions",
		},
		[]string{"from", "to"},
	)

	// StatusAnomalies counts installments skipped because their due date was unreadable.
	StatusAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "installment_status_anomalies_total",
			Help: "Installments left unchanged because of a corrupt due date",
		},
	)

	// RemindersProcessed counts reminder deliveries by outcome.
	RemindersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "Reminder deliveries by result",
		},
		[]string{"result"},
	)

	SchemaMigrationsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_migrations_applied_total",
			Help: "Schema evolution steps applied",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "status_sweep_duration_seconds",
			Help:    "Duration of installment status sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)

	PoliciesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policies_created_total",
			Help: "Policies created with a generated schedule",
		},
	)
)
