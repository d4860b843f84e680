package migration

// Evolutions are the additive changes layered on top of the baseline schema.
// Identifiers are never reused or reordered.
func Evolutions() []Migration {
	return []Migration{
		{
			ID:          "001_policy_terms",
			Description: "policy contact and installment terms",
			Step: Steps(
				AddColumnIfMissing("policies", "mobile_number", "VARCHAR(20)"),
				AddColumnIfMissing("policies", "down_payment", "TEXT NOT NULL DEFAULT '0'"),
				AddColumnIfMissing("policies", "installment_count", "INTEGER NOT NULL DEFAULT 0"),
				AddColumnIfMissing("policies", "interval_days", "INTEGER NOT NULL DEFAULT 30"),
			),
		},
		{
			ID:          "002_installment_tracking",
			Description: "payment reference and reminder tracking on installments",
			Step: Steps(
				AddColumnIfMissing("installments", "transaction_ref", "VARCHAR(100)"),
				AddColumnIfMissing("installments", "is_reminder_sent", "BOOLEAN NOT NULL DEFAULT FALSE"),
				AddColumnIfMissing("installments", "reminder_sent_date", "TIMESTAMP"),
			),
		},
		{
			ID:          "003_reminder_details",
			Description: "reminder recurrence, priority and recipients",
			Step: Steps(
				AddColumnIfMissing("reminders", "recurrence", "VARCHAR(20) NOT NULL DEFAULT ''"),
				AddColumnIfMissing("reminders", "priority", "VARCHAR(20) NOT NULL DEFAULT 'normal'"),
				AddColumnIfMissing("reminders", "recipient_phone", "VARCHAR(20)"),
				AddColumnIfMissing("reminders", "recipient_email", "VARCHAR(100)"),
			),
		},
		{
			ID:          "004_status_indexes",
			Description: "indexes for status sweeps and due reminder scans",
			Step: Steps(
				CreateIndexIfMissing("idx_installments_status_due", "installments", "status", "due_date"),
				CreateIndexIfMissing("idx_installments_policy", "installments", "policy_id"),
				CreateIndexIfMissing("idx_reminders_status_scheduled", "reminders", "status", "scheduled_date"),
			),
		},
	}
}
