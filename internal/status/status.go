// Package status derives installment status from the clock and applies the
// explicit payment transitions.
//
// Overdue is a classification recomputed on every evaluation, not a one-way
// transition: an open installment is overdue once now is past its due date
// plus a threshold, and pending otherwise. Paid and cancelled installments
// only change through MarkPaid, Unmark and Cancel.
package status

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/jalali"
	"github.com/segyhp/installment-engine/internal/logger"
)

// ErrInvalidTransition is returned for a status change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// Change records one reclassification made by Evaluate.
type Change struct {
	InstallmentID uuid.UUID
	PolicyID      uuid.UUID
	From          domain.InstallmentStatus
	To            domain.InstallmentStatus
}

// Anomaly is an installment Evaluate could not classify.
type Anomaly struct {
	InstallmentID uuid.UUID
	PolicyID      uuid.UUID
	Reason        string
}

type Result struct {
	Changes   []Change
	Anomalies []Anomaly
}

// Engine classifies installments with a fixed grace period.
type Engine struct {
	// GraceDays is the immediate overdue threshold. Bulk views pass their own
	// threshold to Overdue instead.
	GraceDays int

	log *logger.Logger
}

func NewEngine(graceDays int, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{GraceDays: graceDays, log: log.WithComponent("status")}
}

// IsOverdue reports whether inst is still open and now is strictly after its
// due date plus thresholdDays. A zero due date is never overdue.
func IsOverdue(inst *domain.Installment, now time.Time, thresholdDays int) bool {
	if inst == nil || !inst.Status.Open() || inst.DueDate.IsZero() {
		return false
	}
	return now.After(inst.DueDate.AddDate(0, 0, thresholdDays))
}

// Classify returns the status inst should have at now.
func (e *Engine) Classify(inst *domain.Installment, now time.Time) domain.InstallmentStatus {
	if !inst.Status.Open() || inst.DueDate.IsZero() {
		return inst.Status
	}
	if IsOverdue(inst, now, e.GraceDays) {
		return domain.InstallmentOverdue
	}
	return domain.InstallmentPending
}

// Evaluate reclassifies items in place and reports what changed. Running it
// again at the same now yields no changes. An installment whose due date is
// missing or unreadable is logged and left as it is; the rest of the batch
// is still evaluated.
func (e *Engine) Evaluate(now time.Time, items []*domain.Installment) Result {
	var res Result

	for _, inst := range items {
		if inst == nil {
			continue
		}
		if inst.DueDate.IsZero() {
			if inst.Status.Open() {
				res.Anomalies = append(res.Anomalies, Anomaly{
					InstallmentID: inst.ID,
					PolicyID:      inst.PolicyID,
					Reason:        "due date missing or unreadable",
				})
				e.log.Warnw("Skipping installment with unreadable due date",
					"installment_id", inst.ID,
					"policy_id", inst.PolicyID,
					"status", inst.Status,
				)
			}
			continue
		}

		next := e.Classify(inst, now)
		if next == inst.Status {
			continue
		}
		res.Changes = append(res.Changes, Change{
			InstallmentID: inst.ID,
			PolicyID:      inst.PolicyID,
			From:          inst.Status,
			To:            next,
		})
		inst.Status = next
	}

	if len(res.Changes) > 0 || len(res.Anomalies) > 0 {
		e.log.Debugw("Evaluated installments",
			"count", len(items),
			"changes", len(res.Changes),
			"anomalies", len(res.Anomalies),
		)
	}

	return res
}

// Overdue filters the open installments past thresholdDays, preserving order.
func Overdue(now time.Time, items []*domain.Installment, thresholdDays int) []*domain.Installment {
	var out []*domain.Installment
	for _, inst := range items {
		if IsOverdue(inst, now, thresholdDays) {
			out = append(out, inst)
		}
	}
	return out
}

// DaysOverdue counts calendar days from the due date to now. It is negative
// before the due date.
func DaysOverdue(inst *domain.Installment, now time.Time) int {
	if inst.DueDate.IsZero() {
		return 0
	}
	due := jalali.ToJalali(inst.DueDate.In(now.Location()))
	return jalali.DaysBetween(due, jalali.ToJalali(now))
}

// MarkPaid moves an open installment to paid.
func MarkPaid(inst *domain.Installment, at time.Time, method, ref string) error {
	if !inst.Status.Open() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inst.Status, domain.InstallmentPaid)
	}
	inst.Status = domain.InstallmentPaid
	inst.PaymentDate = &at
	if method != "" {
		inst.PaymentMethod = &method
	}
	if ref != "" {
		inst.TransactionRef = &ref
	}
	return nil
}

// Unmark reverses a payment. The installment returns to pending and the next
// evaluation decides whether it is overdue.
func Unmark(inst *domain.Installment) error {
	if inst.Status != domain.InstallmentPaid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inst.Status, domain.InstallmentPending)
	}
	inst.Status = domain.InstallmentPending
	inst.PaymentDate = nil
	inst.PaymentMethod = nil
	inst.TransactionRef = nil
	return nil
}

// Cancel moves an open installment to cancelled.
func Cancel(inst *domain.Installment) error {
	if !inst.Status.Open() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inst.Status, domain.InstallmentCancelled)
	}
	inst.Status = domain.InstallmentCancelled
	return nil
}

// AllPaid reports whether items is non-empty and every installment is paid.
// A cancelled installment does not count as paid.
func AllPaid(items []*domain.Installment) bool {
	if len(items) == 0 {
		return false
	}
	for _, inst := range items {
		if inst.Status != domain.InstallmentPaid {
			return false
		}
	}
	return true
}
