package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/logger"
)

var now = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

func installment(dueOffsetDays int, s domain.InstallmentStatus) *domain.Installment {
	return &domain.Installment{
		ID:       uuid.New(),
		PolicyID: uuid.New(),
		Sequence: 1,
		Amount:   decimal.NewFromInt(1_000_000),
		DueDate:  now.AddDate(0, 0, dueOffsetDays),
		Status:   s,
	}
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name      string
		inst      *domain.Installment
		threshold int
		expected  bool
	}{
		{"45 days late at 30 day threshold", installment(-45, domain.InstallmentPending), 30, true},
		{"20 days late at 30 day threshold", installment(-20, domain.InstallmentPending), 30, false},
		{"one day late immediate", installment(-1, domain.InstallmentPending), 0, true},
		{"due in future", installment(5, domain.InstallmentPending), 0, false},
		{"already overdue stays overdue", installment(-10, domain.InstallmentOverdue), 0, true},
		{"paid never overdue", installment(-90, domain.InstallmentPaid), 0, false},
		{"cancelled never overdue", installment(-90, domain.InstallmentCancelled), 0, false},
		{"zero due date", &domain.Installment{Status: domain.InstallmentPending}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOverdue(tt.inst, now, tt.threshold))
		})
	}
}

func TestEngine_EvaluateWithThirtyDayThreshold(t *testing.T) {
	engine := NewEngine(30, logger.NewNop())
	inst := installment(-45, domain.InstallmentPending)

	res := engine.Evaluate(now, []*domain.Installment{inst})

	require.Len(t, res.Changes, 1)
	assert.Equal(t, domain.InstallmentPending, res.Changes[0].From)
	assert.Equal(t, domain.InstallmentOverdue, res.Changes[0].To)
	assert.Equal(t, domain.InstallmentOverdue, inst.Status)
}

func TestEngine_EvaluateIsIdempotent(t *testing.T) {
	engine := NewEngine(0, logger.NewNop())
	items := []*domain.Installment{
		installment(-45, domain.InstallmentPending),
		installment(-3, domain.InstallmentPending),
		installment(10, domain.InstallmentPending),
		installment(-60, domain.InstallmentPaid),
		installment(-60, domain.InstallmentCancelled),
		installment(20, domain.InstallmentOverdue),
	}

	first := engine.Evaluate(now, items)
	assert.Len(t, first.Changes, 3)

	snapshot := make([]domain.InstallmentStatus, len(items))
	for i, inst := range items {
		snapshot[i] = inst.Status
	}

	second := engine.Evaluate(now, items)
	assert.Empty(t, second.Changes)
	for i, inst := range items {
		assert.Equal(t, snapshot[i], inst.Status)
	}

	assert.Equal(t, domain.InstallmentOverdue, items[0].Status)
	assert.Equal(t, domain.InstallmentOverdue, items[1].Status)
	assert.Equal(t, domain.InstallmentPending, items[2].Status)
	assert.Equal(t, domain.InstallmentPaid, items[3].Status)
	assert.Equal(t, domain.InstallmentCancelled, items[4].Status)
	// An overdue installment whose due date is in the future is pending again.
	assert.Equal(t, domain.InstallmentPending, items[5].Status)
}

func TestEngine_EvaluatePaymentBeforeNextRun(t *testing.T) {
	engine := NewEngine(0, logger.NewNop())
	inst := installment(-5, domain.InstallmentPending)

	engine.Evaluate(now, []*domain.Installment{inst})
	require.Equal(t, domain.InstallmentOverdue, inst.Status)

	require.NoError(t, MarkPaid(inst, now, "cash", ""))
	res := engine.Evaluate(now, []*domain.Installment{inst})
	assert.Empty(t, res.Changes)
	assert.Equal(t, domain.InstallmentPaid, inst.Status)
}

func TestEngine_EvaluateCorruptDueDate(t *testing.T) {
	engine := NewEngine(0, logger.NewNop())
	corrupt := &domain.Installment{ID: uuid.New(), Status: domain.InstallmentPending}
	late := installment(-10, domain.InstallmentPending)

	res := engine.Evaluate(now, []*domain.Installment{corrupt, nil, late})

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, corrupt.ID, res.Anomalies[0].InstallmentID)
	assert.Equal(t, domain.InstallmentPending, corrupt.Status)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, late.ID, res.Changes[0].InstallmentID)
}

func TestOverdue_Views(t *testing.T) {
	items := []*domain.Installment{
		installment(-45, domain.InstallmentPending),
		installment(-10, domain.InstallmentOverdue),
		installment(-31, domain.InstallmentPaid),
		installment(2, domain.InstallmentPending),
	}

	immediate := Overdue(now, items, 0)
	assert.Len(t, immediate, 2)

	dashboard := Overdue(now, items, 30)
	require.Len(t, dashboard, 1)
	assert.Same(t, items[0], dashboard[0])
}

func TestDaysOverdue(t *testing.T) {
	inst := &domain.Installment{DueDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 44, DaysOverdue(inst, now))

	inst.DueDate = time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -5, DaysOverdue(inst, now))
}

func TestTransitions(t *testing.T) {
	t.Run("pay and unmark", func(t *testing.T) {
		inst := installment(-2, domain.InstallmentOverdue)
		require.NoError(t, MarkPaid(inst, now, "card", "TX-1"))
		assert.Equal(t, domain.InstallmentPaid, inst.Status)
		require.NotNil(t, inst.PaymentDate)
		assert.Equal(t, "TX-1", *inst.TransactionRef)

		require.NoError(t, Unmark(inst))
		assert.Equal(t, domain.InstallmentPending, inst.Status)
		assert.Nil(t, inst.PaymentDate)
		assert.Nil(t, inst.PaymentMethod)
	})

	t.Run("illegal transitions", func(t *testing.T) {
		paid := installment(0, domain.InstallmentPaid)
		assert.ErrorIs(t, MarkPaid(paid, now, "", ""), ErrInvalidTransition)
		assert.ErrorIs(t, Cancel(paid), ErrInvalidTransition)

		pending := installment(0, domain.InstallmentPending)
		assert.ErrorIs(t, Unmark(pending), ErrInvalidTransition)

		cancelled := installment(0, domain.InstallmentCancelled)
		assert.ErrorIs(t, MarkPaid(cancelled, now, "", ""), ErrInvalidTransition)
		assert.ErrorIs(t, Cancel(cancelled), ErrInvalidTransition)
	})

	t.Run("cancel open", func(t *testing.T) {
		inst := installment(-40, domain.InstallmentOverdue)
		require.NoError(t, Cancel(inst))
		assert.Equal(t, domain.InstallmentCancelled, inst.Status)
	})
}

func TestAllPaid(t *testing.T) {
	assert.False(t, AllPaid(nil))
	assert.True(t, AllPaid([]*domain.Installment{
		installment(0, domain.InstallmentPaid),
		installment(30, domain.InstallmentPaid),
	}))
	assert.False(t, AllPaid([]*domain.Installment{
		installment(0, domain.InstallmentPaid),
		installment(30, domain.InstallmentPending),
	}))
	assert.False(t, AllPaid([]*domain.Installment{
		installment(0, domain.InstallmentPaid),
		installment(30, domain.InstallmentCancelled),
	}))
}
