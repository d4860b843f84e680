package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/installment-engine/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// PolicyRepository defines the interface for policy data operations
type PolicyRepository interface {
	// Create inserts a new policy
	Create(ctx context.Context, policy *domain.Policy) error

	// GetByID retrieves a policy by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error)

	// GetByNumber retrieves a policy by its policy number
	GetByNumber(ctx context.Context, number string) (*domain.Policy, error)

	// ListByIDs retrieves the policies with the given IDs in no particular order
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Policy, error)

	// UpdateStatus sets the policy status
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error

	// CountByStatus counts policies in the given status
	CountByStatus(ctx context.Context, status string) (int, error)
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// CreateBatch inserts a policy's schedule
	CreateBatch(ctx context.Context, installments []*domain.Installment) error

	// GetByID retrieves an installment by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error)

	// ListByPolicy retrieves a policy's installments ordered by sequence
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Installment, error)

	// ListByStatus retrieves installments in any of statuses ordered by due date
	ListByStatus(ctx context.Context, statuses ...domain.InstallmentStatus) ([]*domain.Installment, error)

	// ListDueBetween retrieves installments due in [from, to) ordered by due date
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Installment, error)

	// Transition writes inst's status and payment fields if the stored
	// status is still from. It reports whether a row was updated.
	Transition(ctx context.Context, inst *domain.Installment, from domain.InstallmentStatus) (bool, error)

	// MarkReminderSent flags that a reminder went out for the installment
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	// Create inserts a reminder
	Create(ctx context.Context, reminder *domain.Reminder) error

	// CreateBatch inserts several reminders
	CreateBatch(ctx context.Context, reminders []*domain.Reminder) error

	// GetByID retrieves a reminder by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)

	// ListByPolicy retrieves a policy's reminders ordered by scheduled date
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error)

	// ListDue retrieves pending reminders scheduled at or before now
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error)

	// Settle writes the outcome of a delivery if the reminder is still
	// pending. It reports whether a row was updated.
	Settle(ctx context.Context, reminder *domain.Reminder) (bool, error)

	// CancelPendingForInstallment cancels the pending reminders of an installment
	CancelPendingForInstallment(ctx context.Context, installmentID uuid.UUID, at time.Time) (int, error)
}

// Store groups the repositories and runs units of work across them.
type Store interface {
	Policies() PolicyRepository
	Installments() InstallmentRepository
	Reminders() ReminderRepository

	// WithTx runs fn against a Store bound to one transaction. fn must only
	// use the Store it is given.
	WithTx(ctx context.Context, fn func(Store) error) error
}
