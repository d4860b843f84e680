package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

const installmentColumns = `
	id, policy_id, installment_number, amount, due_date, status, payment_date, payment_method,
	transaction_ref, notes, is_reminder_sent, reminder_sent_date, created_at, updated_at
`

type installmentRepository struct {
	db sqlx.ExtContext
}

func NewInstallmentRepository(db sqlx.ExtContext) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	query := r.db.Rebind(`
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	for _, inst := range installments {
		_, err := r.db.ExecContext(ctx, query,
			inst.ID,
			inst.PolicyID,
			inst.Sequence,
			inst.Amount,
			inst.DueDate.UTC(),
			inst.Status,
			utcPtr(inst.PaymentDate),
			inst.PaymentMethod,
			inst.TransactionRef,
			inst.Notes,
			inst.ReminderSent,
			utcPtr(inst.ReminderSentDate),
			inst.CreatedAt.UTC(),
			inst.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert installment %d: %w", inst.Sequence, err)
		}
	}

	return nil
}

func (r *installmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	query := r.db.Rebind(`SELECT ` + installmentColumns + ` FROM installments WHERE id = ?`)

	var inst domain.Installment
	if err := sqlx.GetContext(ctx, r.db, &inst, query, id); err != nil {
		return nil, notFound(err)
	}

	return &inst, nil
}

func (r *installmentRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Installment, error) {
	query := r.db.Rebind(`
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE policy_id = ?
		ORDER BY installment_number
	`)

	var installments []*domain.Installment
	if err := sqlx.SelectContext(ctx, r.db, &installments, query, policyID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) ListByStatus(ctx context.Context, statuses ...domain.InstallmentStatus) ([]*domain.Installment, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+installmentColumns+`
		FROM installments
		WHERE status IN (?)
		ORDER BY due_date, installment_number
	`, statuses)
	if err != nil {
		return nil, fmt.Errorf("build status lookup: %w", err)
	}

	var installments []*domain.Installment
	if err := sqlx.SelectContext(ctx, r.db, &installments, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Installment, error) {
	query := r.db.Rebind(`
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE due_date >= ? AND due_date < ?
		ORDER BY due_date, installment_number
	`)

	var installments []*domain.Installment
	if err := sqlx.SelectContext(ctx, r.db, &installments, query, from.UTC(), to.UTC()); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) Transition(ctx context.Context, inst *domain.Installment, from domain.InstallmentStatus) (bool, error) {
	query := r.db.Rebind(`
		UPDATE installments
		SET status = ?, payment_date = ?, payment_method = ?, transaction_ref = ?, notes = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		inst.Status,
		utcPtr(inst.PaymentDate),
		inst.PaymentMethod,
		inst.TransactionRef,
		inst.Notes,
		inst.UpdatedAt.UTC(),
		inst.ID,
		from,
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

func (r *installmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE installments
		SET is_reminder_sent = ?, reminder_sent_date = ?, updated_at = ?
		WHERE id = ?
	`)

	_, err := r.db.ExecContext(ctx, query, true, at.UTC(), at.UTC(), id)
	return err
}
