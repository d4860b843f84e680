package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/jalali"
	"github.com/segyhp/installment-engine/internal/metrics"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/schedule"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// CreatePolicy stores a policy with its generated schedule and, on request,
// one reminder per installment. Everything is written in one transaction.
func (s *InstallmentService) CreatePolicy(ctx context.Context, request *domain.CreatePolicyRequest) (*domain.CreatePolicyResponse, error) {
	// Check if policy already exists
	existing, err := s.store.Policies().GetByNumber(ctx, request.PolicyNumber)
	if err == nil && existing != nil {
		return nil, customError.WrapPolicyAlreadyExists(request.PolicyNumber)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}

	start, err := parseJalali(request.StartDate)
	if err != nil {
		return nil, err
	}

	var end *time.Time
	if request.EndDate != "" {
		e, err := parseJalali(request.EndDate)
		if err != nil {
			return nil, err
		}
		if e.Before(start) {
			return nil, customError.WrapInvalidDate(request.EndDate,
				fmt.Errorf("%w: end date is before start date", jalali.ErrInvalidDate))
		}
		end = &e
	}

	financed, err := schedule.Financed(request.TotalAmount, request.DownPayment)
	if err != nil {
		return nil, customError.WrapInvalidSchedule(err)
	}

	interval := request.IntervalDays
	if interval == 0 {
		interval = s.cfg.DefaultIntervalDays
	}

	firstDue, err := schedule.FirstDue(start, s.cfg.FirstDueMonths)
	if err != nil {
		return nil, wrapError(err)
	}

	entries, err := s.generator.Generate(financed, request.InstallmentCount, firstDue, interval)
	if err != nil {
		return nil, customError.WrapInvalidSchedule(err)
	}

	now := s.now()
	policy := &domain.Policy{
		ID:               uuid.New(),
		PolicyNumber:     request.PolicyNumber,
		HolderName:       request.HolderName,
		NationalID:       request.NationalID,
		MobileNumber:     optional(request.MobileNumber),
		PolicyType:       request.PolicyType,
		InsuranceCompany: request.InsuranceCompany,
		TotalAmount:      request.TotalAmount,
		DownPayment:      request.DownPayment,
		InstallmentCount: request.InstallmentCount,
		IntervalDays:     interval,
		StartDate:        start,
		EndDate:          end,
		Status:           domain.PolicyStatusActive,
		Description:      optional(request.Description),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	installments := make([]*domain.Installment, 0, len(entries))
	for _, e := range entries {
		installments = append(installments, &domain.Installment{
			ID:        uuid.New(),
			PolicyID:  policy.ID,
			Sequence:  e.Sequence,
			Amount:    e.Amount,
			DueDate:   e.DueDate,
			Status:    domain.InstallmentPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	var reminders []*domain.Reminder
	if request.Reminders {
		reminders = s.installmentReminders(policy, installments)
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Policies().Create(ctx, policy); err != nil {
			return err
		}
		if err := tx.Installments().CreateBatch(ctx, installments); err != nil {
			return err
		}
		if len(reminders) > 0 {
			return tx.Reminders().CreateBatch(ctx, reminders)
		}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent create of the same number.
		return nil, customError.WrapPolicyAlreadyExists(request.PolicyNumber)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	metrics.PoliciesCreated.Inc()
	s.log.Infow("Policy created",
		"policy_id", policy.ID,
		"policy_number", policy.PolicyNumber,
		"installments", len(installments),
		"reminders", len(reminders),
		"financed", financed.String(),
	)

	return &domain.CreatePolicyResponse{
		Policy:       policy,
		Installments: installments,
		Reminders:    len(reminders),
	}, nil
}

// GetPolicy returns a policy with its installments classified at the
// current time.
func (s *InstallmentService) GetPolicy(ctx context.Context, id uuid.UUID) (*domain.PolicyDetailResponse, error) {
	policy, err := s.store.Policies().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapPolicyNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	items, err := s.ListInstallments(ctx, id)
	if err != nil {
		return nil, err
	}

	raw := make([]*domain.Installment, len(items))
	for i, item := range items {
		raw[i] = item.Installment
	}

	return &domain.PolicyDetailResponse{
		Policy:       policy,
		StartJalali:  jalali.Format(policy.StartDate),
		Installments: items,
		AllPaid:      status.AllPaid(raw),
	}, nil
}

// ListInstallments returns a policy's schedule with Jalali dates and
// formatted amounts. Open installments show their derived status.
func (s *InstallmentService) ListInstallments(ctx context.Context, policyID uuid.UUID) ([]*domain.InstallmentResponse, error) {
	items, err := s.store.Installments().ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.engine.Evaluate(s.now(), items)

	out := make([]*domain.InstallmentResponse, 0, len(items))
	for _, inst := range items {
		out = append(out, s.installmentResponse(inst))
	}
	return out, nil
}

func (s *InstallmentService) installmentResponse(inst *domain.Installment) *domain.InstallmentResponse {
	resp := &domain.InstallmentResponse{
		Installment:     inst,
		AmountFormatted: utils.FormatAmount(inst.Amount, s.cfg.CurrencyPlaces),
	}
	if !inst.DueDate.IsZero() {
		resp.DueDateJalali = jalali.Format(inst.DueDate)
	}
	if inst.PaymentDate != nil {
		resp.PaymentDateJalali = jalali.Format(*inst.PaymentDate)
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
