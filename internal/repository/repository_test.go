package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/logger"
	"github.com/segyhp/installment-engine/internal/migration"
)

func newTestStore(t *testing.T) (Store, *sqlx.DB) {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = migration.Migrate(context.Background(), db, logger.NewNop())
	require.NoError(t, err)

	return NewStore(db), db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPolicy(number string) *domain.Policy {
	now := time.Now().UTC().Truncate(time.Second)
	mobile := "09121234567"
	return &domain.Policy{
		ID:               uuid.New(),
		PolicyNumber:     number,
		HolderName:       "Sara Ahmadi",
		NationalID:       "0012345678",
		MobileNumber:     &mobile,
		PolicyType:       "third-party",
		InsuranceCompany: "Asia",
		TotalAmount:      decimal.NewFromInt(10_000_000),
		DownPayment:      decimal.NewFromInt(1_000_000),
		InstallmentCount: 3,
		IntervalDays:     30,
		StartDate:        day(2023, time.June, 6),
		Status:           domain.PolicyStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func newInstallments(policyID uuid.UUID) []*domain.Installment {
	now := time.Now().UTC().Truncate(time.Second)
	dues := []time.Time{day(2023, time.July, 6), day(2023, time.August, 5), day(2023, time.September, 4)}
	out := make([]*domain.Installment, len(dues))
	for i, due := range dues {
		out[i] = &domain.Installment{
			ID:        uuid.New(),
			PolicyID:  policyID,
			Sequence:  i + 1,
			Amount:    decimal.NewFromInt(3_000_000),
			DueDate:   due,
			Status:    domain.InstallmentPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return out
}

func seed(t *testing.T, s Store) (*domain.Policy, []*domain.Installment) {
	t.Helper()
	ctx := context.Background()
	p := newPolicy("P-" + uuid.NewString()[:8])
	require.NoError(t, s.Policies().Create(ctx, p))
	items := newInstallments(p.ID)
	require.NoError(t, s.Installments().CreateBatch(ctx, items))
	return p, items
}

func TestPolicyRepository(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Policies()

	p := newPolicy("1402-0001")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.PolicyNumber, got.PolicyNumber)
	assert.True(t, p.TotalAmount.Equal(got.TotalAmount))
	assert.True(t, p.DownPayment.Equal(got.DownPayment))
	assert.True(t, p.StartDate.Equal(got.StartDate))
	require.NotNil(t, got.MobileNumber)
	assert.Equal(t, *p.MobileNumber, *got.MobileNumber)
	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.Description)

	byNumber, err := repo.GetByNumber(ctx, "1402-0001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byNumber.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByNumber(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := newPolicy("1402-0001")
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate, "policy numbers are unique")

	other := newPolicy("1402-0002")
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByIDs(ctx, []uuid.UUID{p.ID, other.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.UpdateStatus(ctx, p.ID, domain.PolicyStatusArchived, time.Now()))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.PolicyStatusArchived, time.Now()), ErrNotFound)

	n, err := repo.CountByStatus(ctx, domain.PolicyStatusActive)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.CountByStatus(ctx, domain.PolicyStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInstallmentRepository_Queries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Installments()
	p, items := seed(t, s)

	list, err := repo.ListByPolicy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, inst := range list {
		assert.Equal(t, i+1, inst.Sequence)
		assert.True(t, items[i].DueDate.Equal(inst.DueDate))
		assert.True(t, items[i].Amount.Equal(inst.Amount))
		assert.Equal(t, domain.InstallmentPending, inst.Status)
		assert.False(t, inst.ReminderSent)
	}

	got, err := repo.GetByID(ctx, items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Sequence)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	due, err := repo.ListDueBetween(ctx, day(2023, time.August, 1), day(2023, time.September, 4))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, items[1].ID, due[0].ID)

	open, err := repo.ListByStatus(ctx, domain.InstallmentPending, domain.InstallmentOverdue)
	require.NoError(t, err)
	assert.Len(t, open, 3)

	none, err := repo.ListByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	dupSeq := newInstallments(p.ID)[:1]
	assert.Error(t, repo.CreateBatch(ctx, dupSeq), "sequence is unique per policy")
}

func TestInstallmentRepository_Transition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Installments()
	_, items := seed(t, s)

	inst := items[0]
	paidAt := day(2023, time.July, 1)
	method := "card"
	inst.Status = domain.InstallmentPaid
	inst.PaymentDate = &paidAt
	inst.PaymentMethod = &method
	inst.UpdatedAt = paidAt

	ok, err := repo.Transition(ctx, inst, domain.InstallmentPending)
	require.NoError(t, err)
	assert.True(t, ok)

	// A sweep that read the row as pending must not overwrite the payment.
	stale := *items[0]
	stale.Status = domain.InstallmentOverdue
	stale.PaymentDate = nil
	ok, err = repo.Transition(ctx, &stale, domain.InstallmentPending)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentPaid, got.Status)
	require.NotNil(t, got.PaymentDate)
	assert.True(t, paidAt.Equal(*got.PaymentDate))
	require.NotNil(t, got.PaymentMethod)
	assert.Equal(t, "card", *got.PaymentMethod)

	paid, err := repo.ListByStatus(ctx, domain.InstallmentPaid)
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	require.NoError(t, repo.MarkReminderSent(ctx, items[1].ID, paidAt))
	got, err = repo.GetByID(ctx, items[1].ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)
	require.NotNil(t, got.ReminderSentDate)
}

func TestReminderRepository(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Reminders()
	p, items := seed(t, s)

	now := day(2023, time.July, 10)
	mk := func(scheduled time.Time, installmentID *uuid.UUID, rec domain.Recurrence) *domain.Reminder {
		return &domain.Reminder{
			ID:            uuid.New(),
			PolicyID:      &p.ID,
			InstallmentID: installmentID,
			Channel:       domain.ChannelSystem,
			Title:         "Installment due",
			Message:       "pay",
			ScheduledDate: scheduled,
			Status:        domain.ReminderPending,
			Recurrence:    rec,
			Priority:      domain.PriorityNormal,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	due := mk(day(2023, time.July, 3), &items[0].ID, domain.RecurrenceNone)
	recurring := mk(day(2023, time.July, 9), nil, domain.RecurrenceWeekly)
	future := mk(day(2023, time.August, 2), &items[1].ID, domain.RecurrenceNone)
	require.NoError(t, repo.CreateBatch(ctx, []*domain.Reminder{due, recurring, future}))

	orphan := mk(day(2023, time.July, 1), nil, domain.RecurrenceNone)
	orphan.PolicyID = nil
	require.NoError(t, repo.Create(ctx, orphan))

	list, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, orphan.ID, list[0].ID)
	assert.Equal(t, recurring.ID, list[2].ID)
	assert.Equal(t, domain.RecurrenceWeekly, list[2].Recurrence)
	assert.Nil(t, list[0].PolicyID)

	limited, err := repo.ListDue(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byPolicy, err := repo.ListByPolicy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, byPolicy, 3)
	assert.Equal(t, due.ID, byPolicy[0].ID)
	assert.Equal(t, future.ID, byPolicy[2].ID)

	byPolicy, err = repo.ListByPolicy(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, byPolicy)

	sentAt := now
	due.Status = domain.ReminderSent
	due.SentDate = &sentAt
	due.UpdatedAt = sentAt
	ok, err := repo.Settle(ctx, due)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Settle(ctx, due)
	require.NoError(t, err)
	assert.False(t, ok, "a settled reminder cannot be settled again")

	got, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderSent, got.Status)

	n, err := repo.CancelPendingForInstallment(ctx, items[1].ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.CancelPendingForInstallment(ctx, items[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WithTx(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p := newPolicy("TX-1")
	boom := errors.New("schedule insert failed")
	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.Policies().Create(ctx, p); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Policies().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound, "rolled back")

	err = s.WithTx(ctx, func(tx Store) error {
		if err := tx.Policies().Create(ctx, p); err != nil {
			return err
		}
		// Nested units of work join the outer transaction.
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.Installments().CreateBatch(ctx, newInstallments(p.ID))
		})
	})
	require.NoError(t, err)

	items, err := s.Installments().ListByPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
