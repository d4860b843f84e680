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
	"github.com/segyhp/installment-engine/internal/notify"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// reminderBatchSize bounds one delivery pass.
const reminderBatchSize = 500

// installmentReminders builds one reminder per installment, due
// ReminderLeadDays before the installment. Installments already past due get
// none; a reminder whose lead date has passed is scheduled for today.
func (s *InstallmentService) installmentReminders(policy *domain.Policy, installments []*domain.Installment) []*domain.Reminder {
	today := s.today()
	now := s.now()

	channel := domain.ChannelSystem
	if policy.MobileNumber != nil && *policy.MobileNumber != "" {
		channel = domain.ChannelSMS
	}

	reminders := make([]*domain.Reminder, 0, len(installments))
	for _, inst := range installments {
		if inst.DueDate.Before(today) {
			continue
		}

		scheduled := inst.DueDate.AddDate(0, 0, -s.cfg.ReminderLeadDays)
		if scheduled.Before(today) {
			scheduled = today
		}

		policyID, instID := policy.ID, inst.ID
		reminders = append(reminders, &domain.Reminder{
			ID:            uuid.New(),
			PolicyID:      &policyID,
			InstallmentID: &instID,
			Channel:       channel,
			Title:         fmt.Sprintf("یادآوری قسط %d", inst.Sequence),
			Message: fmt.Sprintf("قسط %d بیمه‌نامه %s به مبلغ %s در تاریخ %s سررسید می‌شود.",
				inst.Sequence,
				policy.PolicyNumber,
				utils.FormatRial(inst.Amount),
				jalali.Format(inst.DueDate),
			),
			ScheduledDate:  scheduled,
			Status:         domain.ReminderPending,
			Priority:       domain.PriorityNormal,
			RecipientPhone: policy.MobileNumber,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return reminders
}

// CreateReminder stores a pending reminder. A recurring reminder spawns its
// next occurrence each time it is delivered. Without an explicit phone the
// policy's mobile number is used.
func (s *InstallmentService) CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error) {
	if !status.ValidRecurrence(request.Recurrence) {
		return nil, customError.WrapValidation(
			fmt.Errorf("%w: %q", status.ErrUnknownRecurrence, request.Recurrence))
	}

	scheduled, err := parseJalali(request.ScheduledDate)
	if err != nil {
		return nil, err
	}

	policyID := request.PolicyID
	if request.InstallmentID != nil {
		inst, err := s.store.Installments().GetByID(ctx, *request.InstallmentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapInstallmentNotFound(request.InstallmentID.String())
		}
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if policyID != nil && *policyID != inst.PolicyID {
			return nil, customError.WrapValidation(
				fmt.Errorf("installment %s does not belong to policy %s", inst.ID, *policyID))
		}
		policyID = &inst.PolicyID
	}

	phone := optional(request.RecipientPhone)
	if policyID != nil {
		policy, err := s.store.Policies().GetByID(ctx, *policyID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapPolicyNotFound(policyID.String())
		}
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if phone == nil {
			phone = policy.MobileNumber
		}
	}

	now := s.now()
	rem := &domain.Reminder{
		ID:             uuid.New(),
		PolicyID:       policyID,
		InstallmentID:  request.InstallmentID,
		Channel:        request.Channel,
		Title:          request.Title,
		Message:        request.Message,
		ScheduledDate:  scheduled,
		Status:         domain.ReminderPending,
		Recurrence:     request.Recurrence,
		Priority:       request.Priority,
		RecipientPhone: phone,
		RecipientEmail: optional(request.RecipientEmail),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rem.Channel == "" {
		rem.Channel = domain.ChannelSystem
	}
	if rem.Priority == "" {
		rem.Priority = domain.PriorityNormal
	}
	if err := notify.CheckRecipient(rem); err != nil {
		return nil, customError.WrapValidation(err)
	}

	if err := s.store.Reminders().Create(ctx, rem); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.Infow("Reminder created",
		"reminder_id", rem.ID,
		"channel", rem.Channel,
		"recurrence", rem.Recurrence,
		"scheduled_date", jalali.Format(rem.ScheduledDate),
	)
	return rem, nil
}

// ListReminders returns a policy's reminders in schedule order.
func (s *InstallmentService) ListReminders(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error) {
	if _, err := s.store.Policies().GetByID(ctx, policyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapPolicyNotFound(policyID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	reminders, err := s.store.Reminders().ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return reminders, nil
}

// ProcessReminders delivers the pending reminders that are due. Each outcome
// is written only if the reminder is still pending, so two overlapping runs
// deliver and spawn a successor at most once per reminder.
func (s *InstallmentService) ProcessReminders(ctx context.Context) (*domain.ReminderRunStats, error) {
	now := s.now()

	due, err := s.store.Reminders().ListDue(ctx, now, reminderBatchSize)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	stats := &domain.ReminderRunStats{ByChannel: make(map[string]int)}
	for _, rem := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Total++

		result, err := s.deliver(ctx, rem, now)
		if err != nil {
			s.log.WithError(err).Errorw("Failed to settle reminder", "reminder_id", rem.ID)
			result = "error"
		}

		switch result {
		case "sent":
			stats.Sent++
			stats.ByChannel[rem.Channel]++
		case "spawned":
			stats.Sent++
			stats.Spawned++
			stats.ByChannel[rem.Channel]++
		case "failed":
			stats.Failed++
		default:
			stats.Skipped++
		}
		metrics.RemindersProcessed.WithLabelValues(result).Inc()
	}

	s.log.Infow("Reminder run finished",
		"total", stats.Total,
		"sent", stats.Sent,
		"failed", stats.Failed,
		"spawned", stats.Spawned,
		"skipped", stats.Skipped,
	)

	return stats, nil
}

// deliver sends one reminder and records the outcome: sent, spawned, failed
// or skipped.
func (s *InstallmentService) deliver(ctx context.Context, rem *domain.Reminder, now time.Time) (string, error) {
	sendErr := s.notifier.Send(ctx, rem)
	if sendErr != nil {
		s.log.Warnw("Reminder delivery failed", "reminder_id", rem.ID, "channel", rem.Channel, "error", sendErr)
	}

	updated, successor, err := status.CompleteDelivery(*rem, sendErr == nil, now)
	switch {
	case errors.Is(err, status.ErrAlreadyDelivered):
		return "skipped", nil
	case errors.Is(err, status.ErrUnknownRecurrence):
		s.log.Warnw("Reminder has an unknown recurrence", "reminder_id", rem.ID, "recurrence", rem.Recurrence)
		updated, successor = *rem, nil
		updated.Status = domain.ReminderFailed
		updated.UpdatedAt = now
	case err != nil:
		return "", err
	}

	result := "failed"
	if updated.Status == domain.ReminderSent {
		result = "sent"
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Reminders().Settle(ctx, &updated)
		if err != nil {
			return err
		}
		if !ok {
			result = "skipped"
			return nil
		}

		if successor != nil {
			if err := tx.Reminders().Create(ctx, successor); err != nil {
				return err
			}
			result = "spawned"
		}

		if updated.Status == domain.ReminderSent && updated.InstallmentID != nil {
			return tx.Installments().MarkReminderSent(ctx, *updated.InstallmentID, now)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	*rem = updated
	return result, nil
}

// CancelReminder stops a pending reminder.
func (s *InstallmentService) CancelReminder(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	rem, err := s.store.Reminders().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapReminderNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := status.CancelReminder(rem); err != nil {
		return nil, customError.WrapInvalidTransition(err)
	}
	rem.UpdatedAt = s.now()

	ok, err := s.store.Reminders().Settle(ctx, rem)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !ok {
		return nil, customError.WrapInvalidTransition(
			fmt.Errorf("%w: reminder %s is no longer pending", status.ErrInvalidTransition, id))
	}

	s.log.Infow("Reminder cancelled", "reminder_id", id)
	return rem, nil
}
