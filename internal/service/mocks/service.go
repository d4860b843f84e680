package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/service"
)

type MockInstallmentService struct {
	mock.Mock
}

// NewMockInstallmentService creates a new mock installment service instance
func NewMockInstallmentService() *MockInstallmentService {
	return &MockInstallmentService{}
}

func (m *MockInstallmentService) CreatePolicy(ctx context.Context, request *domain.CreatePolicyRequest) (*domain.CreatePolicyResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatePolicyResponse), args.Error(1)
}

func (m *MockInstallmentService) GetPolicy(ctx context.Context, id uuid.UUID) (*domain.PolicyDetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PolicyDetailResponse), args.Error(1)
}

func (m *MockInstallmentService) ListInstallments(ctx context.Context, policyID uuid.UUID) ([]*domain.InstallmentResponse, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InstallmentResponse), args.Error(1)
}

func (m *MockInstallmentService) PayInstallment(ctx context.Context, id uuid.UUID, request *domain.PayInstallmentRequest) (*domain.PaymentResult, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockInstallmentService) UnpayInstallment(ctx context.Context, id uuid.UUID) (*domain.PaymentResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockInstallmentService) CancelInstallment(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockInstallmentService) Overdue(ctx context.Context, view string) (*domain.OverdueResponse, error) {
	args := m.Called(ctx, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OverdueResponse), args.Error(1)
}

func (m *MockInstallmentService) Upcoming(ctx context.Context, days int) ([]*domain.UpcomingInstallment, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UpcomingInstallment), args.Error(1)
}

func (m *MockInstallmentService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func (m *MockInstallmentService) CalendarMonth(ctx context.Context, year, month int) (*service.CalendarMonth, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CalendarMonth), args.Error(1)
}

func (m *MockInstallmentService) Convert(input string) (*service.Conversion, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Conversion), args.Error(1)
}

func (m *MockInstallmentService) CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockInstallmentService) ListReminders(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockInstallmentService) CancelReminder(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}
