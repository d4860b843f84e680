package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/repository"
)

// MockStore hands out the mock repositories and runs WithTx inline.
type MockStore struct {
	PolicyRepo      *MockPolicyRepository
	InstallmentRepo *MockInstallmentRepository
	ReminderRepo    *MockReminderRepository

	// TxErr, when set, is returned by WithTx without calling fn.
	TxErr error
}

func NewMockStore() *MockStore {
	return &MockStore{
		PolicyRepo:      &MockPolicyRepository{},
		InstallmentRepo: &MockInstallmentRepository{},
		ReminderRepo:    &MockReminderRepository{},
	}
}

func (s *MockStore) Policies() repository.PolicyRepository {
	return s.PolicyRepo
}

func (s *MockStore) Installments() repository.InstallmentRepository {
	return s.InstallmentRepo
}

func (s *MockStore) Reminders() repository.ReminderRepository {
	return s.ReminderRepo
}

func (s *MockStore) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.TxErr != nil {
		return s.TxErr
	}
	return fn(s)
}

// AssertExpectations checks every mock repository.
func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.PolicyRepo.AssertExpectations(t)
	s.InstallmentRepo.AssertExpectations(t)
	s.ReminderRepo.AssertExpectations(t)
}

type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Policy), args.Error(1)
}

func (m *MockPolicyRepository) GetByNumber(ctx context.Context, number string) (*domain.Policy, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Policy), args.Error(1)
}

func (m *MockPolicyRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Policy, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Policy), args.Error(1)
}

func (m *MockPolicyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *MockPolicyRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByStatus(ctx context.Context, statuses ...domain.InstallmentStatus) ([]*domain.Installment, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Installment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) Transition(ctx context.Context, inst *domain.Installment, from domain.InstallmentStatus) (bool, error) {
	args := m.Called(ctx, inst, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) CreateBatch(ctx context.Context, reminders []*domain.Reminder) error {
	args := m.Called(ctx, reminders)
	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Settle(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	args := m.Called(ctx, reminder)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderRepository) CancelPendingForInstallment(ctx context.Context, installmentID uuid.UUID, at time.Time) (int, error) {
	args := m.Called(ctx, installmentID, at)
	return args.Int(0), args.Error(1)
}
