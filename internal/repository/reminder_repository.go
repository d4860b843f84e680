package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

const reminderColumns = `
	id, policy_id, installment_id, channel, title, message, scheduled_date, sent_date, status,
	recurrence, priority, recipient_phone, recipient_email, created_at, updated_at
`

type reminderRepository struct {
	db sqlx.ExtContext
}

func NewReminderRepository(db sqlx.ExtContext) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	query := r.db.Rebind(`
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.PolicyID,
		reminder.InstallmentID,
		reminder.Channel,
		reminder.Title,
		reminder.Message,
		reminder.ScheduledDate.UTC(),
		utcPtr(reminder.SentDate),
		reminder.Status,
		reminder.Recurrence,
		reminder.Priority,
		reminder.RecipientPhone,
		reminder.RecipientEmail,
		reminder.CreatedAt.UTC(),
		reminder.UpdatedAt.UTC(),
	)

	return err
}

func (r *reminderRepository) CreateBatch(ctx context.Context, reminders []*domain.Reminder) error {
	for _, rem := range reminders {
		if err := r.Create(ctx, rem); err != nil {
			return fmt.Errorf("insert reminder %s: %w", rem.ID, err)
		}
	}
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := r.db.Rebind(`SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`)

	var reminder domain.Reminder
	if err := sqlx.GetContext(ctx, r.db, &reminder, query, id); err != nil {
		return nil, notFound(err)
	}

	return &reminder, nil
}

func (r *reminderRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error) {
	query := r.db.Rebind(`
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE policy_id = ?
		ORDER BY scheduled_date, created_at
	`)

	reminders := []*domain.Reminder{}
	if err := sqlx.SelectContext(ctx, r.db, &reminders, query, policyID); err != nil {
		return nil, err
	}

	return reminders, nil
}

func (r *reminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	query := r.db.Rebind(`
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = ? AND scheduled_date <= ?
		ORDER BY scheduled_date
		LIMIT ?
	`)

	var reminders []*domain.Reminder
	if err := sqlx.SelectContext(ctx, r.db, &reminders, query, domain.ReminderPending, now.UTC(), limit); err != nil {
		return nil, err
	}

	return reminders, nil
}

func (r *reminderRepository) Settle(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	query := r.db.Rebind(`
		UPDATE reminders
		SET status = ?, sent_date = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		reminder.Status,
		utcPtr(reminder.SentDate),
		reminder.UpdatedAt.UTC(),
		reminder.ID,
		domain.ReminderPending,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *reminderRepository) CancelPendingForInstallment(ctx context.Context, installmentID uuid.UUID, at time.Time) (int, error) {
	query := r.db.Rebind(`
		UPDATE reminders
		SET status = ?, updated_at = ?
		WHERE installment_id = ? AND status = ?
	`)

	res, err := r.db.ExecContext(ctx, query, domain.ReminderCancelled, at.UTC(), installmentID, domain.ReminderPending)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
