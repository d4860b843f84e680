package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/lock"
	"github.com/segyhp/installment-engine/internal/metrics"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
)

// PayInstallment records a payment. When it completes the schedule and
// archiving is enabled, the policy is archived in the same transaction.
func (s *InstallmentService) PayInstallment(ctx context.Context, id uuid.UUID, request *domain.PayInstallmentRequest) (*domain.PaymentResult, error) {
	paidAt := s.now()
	if request.PaymentDate != "" {
		t, err := parseJalali(request.PaymentDate)
		if err != nil {
			return nil, err
		}
		paidAt = t
	}

	var (
		result *domain.PaymentResult
		from   domain.InstallmentStatus
	)
	err := s.withInstallment(ctx, id, func(tx repository.Store, policy *domain.Policy, inst *domain.Installment) error {
		if policy.Status == domain.PolicyStatusCancelled {
			return customError.WrapPolicyNotActive(policy.ID.String(), policy.Status)
		}

		from = inst.Status
		if err := status.MarkPaid(inst, paidAt, request.PaymentMethod, request.TransactionRef); err != nil {
			return customError.WrapInvalidTransition(err)
		}
		if request.Notes != "" {
			inst.Notes = &request.Notes
		}

		if err := s.transition(ctx, tx, inst, from); err != nil {
			return err
		}

		items, err := tx.Installments().ListByPolicy(ctx, policy.ID)
		if err != nil {
			return err
		}

		result = &domain.PaymentResult{Installment: inst, AllPaid: status.AllPaid(items)}
		if result.AllPaid && s.cfg.ArchiveOnFullPayment && policy.Status == domain.PolicyStatusActive {
			if err := tx.Policies().UpdateStatus(ctx, policy.ID, domain.PolicyStatusArchived, inst.UpdatedAt); err != nil {
				return err
			}
			result.PolicyArchived = true
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	metrics.StatusTransitions.WithLabelValues(string(from), string(domain.InstallmentPaid)).Inc()
	s.log.Infow("Installment paid",
		"installment_id", id,
		"policy_id", result.Installment.PolicyID,
		"all_paid", result.AllPaid,
		"policy_archived", result.PolicyArchived,
	)

	return result, nil
}

// UnpayInstallment reverses a payment. The installment is reclassified
// immediately, and an archived policy becomes active again.
func (s *InstallmentService) UnpayInstallment(ctx context.Context, id uuid.UUID) (*domain.PaymentResult, error) {
	var result *domain.PaymentResult
	err := s.withInstallment(ctx, id, func(tx repository.Store, policy *domain.Policy, inst *domain.Installment) error {
		if err := status.Unmark(inst); err != nil {
			return customError.WrapInvalidTransition(err)
		}
		inst.Status = s.engine.Classify(inst, s.now())

		if err := s.transition(ctx, tx, inst, domain.InstallmentPaid); err != nil {
			return err
		}

		if policy.Status == domain.PolicyStatusArchived {
			if err := tx.Policies().UpdateStatus(ctx, policy.ID, domain.PolicyStatusActive, inst.UpdatedAt); err != nil {
				return err
			}
		}

		result = &domain.PaymentResult{Installment: inst}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	metrics.StatusTransitions.WithLabelValues(string(domain.InstallmentPaid), string(result.Installment.Status)).Inc()
	s.log.Infow("Installment payment reversed", "installment_id", id, "status", result.Installment.Status)

	return result, nil
}

// CancelInstallment cancels an open installment and its pending reminders.
func (s *InstallmentService) CancelInstallment(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	var (
		cancelled *domain.Installment
		from      domain.InstallmentStatus
	)
	err := s.withInstallment(ctx, id, func(tx repository.Store, _ *domain.Policy, inst *domain.Installment) error {
		from = inst.Status
		if err := status.Cancel(inst); err != nil {
			return customError.WrapInvalidTransition(err)
		}
		if err := s.transition(ctx, tx, inst, from); err != nil {
			return err
		}
		cancelled = inst
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	metrics.StatusTransitions.WithLabelValues(string(from), string(domain.InstallmentCancelled)).Inc()
	s.log.Infow("Installment cancelled", "installment_id", id)

	return cancelled, nil
}

// withInstallment runs fn under the policy lock, in a transaction, with the
// installment and its policy freshly read.
func (s *InstallmentService) withInstallment(
	ctx context.Context,
	id uuid.UUID,
	fn func(tx repository.Store, policy *domain.Policy, inst *domain.Installment) error,
) error {
	inst, err := s.store.Installments().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapInstallmentNotFound(id.String())
	}
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	key := lock.PolicyKey(inst.PolicyID)
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return customError.WrapLockError(key, err)
	}
	defer release()

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		inst, err := tx.Installments().GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return customError.WrapInstallmentNotFound(id.String())
		}
		if err != nil {
			return err
		}

		policy, err := tx.Policies().GetByID(ctx, inst.PolicyID)
		if errors.Is(err, repository.ErrNotFound) {
			return customError.WrapPolicyNotFound(inst.PolicyID.String())
		}
		if err != nil {
			return err
		}

		return fn(tx, policy, inst)
	})
}

// transition persists inst if its stored status is still from. Pending
// reminders of an installment that is no longer open are cancelled.
func (s *InstallmentService) transition(ctx context.Context, tx repository.Store, inst *domain.Installment, from domain.InstallmentStatus) error {
	inst.UpdatedAt = s.now()

	ok, err := tx.Installments().Transition(ctx, inst, from)
	if err != nil {
		return err
	}
	if !ok {
		return customError.WrapInvalidTransition(
			fmt.Errorf("%w: installment %s is no longer %s", status.ErrInvalidTransition, inst.ID, from))
	}

	if !inst.Status.Open() {
		if _, err := tx.Reminders().CancelPendingForInstallment(ctx, inst.ID, inst.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}
