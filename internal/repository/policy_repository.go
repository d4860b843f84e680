package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

const policyColumns = `
	id, policy_number, holder_name, national_id, mobile_number, policy_type, insurance_company,
	total_amount, down_payment, installment_count, interval_days, start_date, end_date,
	status, description, created_at, updated_at
`

type policyRepository struct {
	db sqlx.ExtContext
}

func NewPolicyRepository(db sqlx.ExtContext) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	query := r.db.Rebind(`
		INSERT INTO policies (` + policyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		policy.ID,
		policy.PolicyNumber,
		policy.HolderName,
		policy.NationalID,
		policy.MobileNumber,
		policy.PolicyType,
		policy.InsuranceCompany,
		policy.TotalAmount,
		policy.DownPayment,
		policy.InstallmentCount,
		policy.IntervalDays,
		policy.StartDate.UTC(),
		utcPtr(policy.EndDate),
		policy.Status,
		policy.Description,
		policy.CreatedAt.UTC(),
		policy.UpdatedAt.UTC(),
	)
	if err != nil {
		return duplicate(err, "policy number "+policy.PolicyNumber)
	}

	return nil
}

func (r *policyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	query := r.db.Rebind(`SELECT ` + policyColumns + ` FROM policies WHERE id = ?`)

	var policy domain.Policy
	if err := sqlx.GetContext(ctx, r.db, &policy, query, id); err != nil {
		return nil, notFound(err)
	}

	return &policy, nil
}

func (r *policyRepository) GetByNumber(ctx context.Context, number string) (*domain.Policy, error) {
	query := r.db.Rebind(`SELECT ` + policyColumns + ` FROM policies WHERE policy_number = ?`)

	var policy domain.Policy
	if err := sqlx.GetContext(ctx, r.db, &policy, query, number); err != nil {
		return nil, notFound(err)
	}

	return &policy, nil
}

func (r *policyRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Policy, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+policyColumns+` FROM policies WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build policy lookup: %w", err)
	}

	var policies []*domain.Policy
	if err := sqlx.SelectContext(ctx, r.db, &policies, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return policies, nil
}

func (r *policyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	query := r.db.Rebind(`UPDATE policies SET status = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, status, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *policyRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM policies WHERE status = ?`)

	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, query, status); err != nil {
		return 0, err
	}
	return n, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
