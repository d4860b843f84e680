package status

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/installment-engine/internal/domain"
)

var (
	// ErrAlreadyDelivered is returned when a reminder is no longer pending.
	// Replayed deliveries hit it and spawn nothing.
	ErrAlreadyDelivered = errors.New("reminder already delivered")

	ErrUnknownRecurrence = errors.New("unknown recurrence")
)

var recurrenceDays = map[domain.Recurrence]int{
	domain.RecurrenceDaily:   1,
	domain.RecurrenceWeekly:  7,
	domain.RecurrenceMonthly: 30,
}

// ValidRecurrence reports whether r is none or a known unit.
func ValidRecurrence(r domain.Recurrence) bool {
	if r == domain.RecurrenceNone {
		return true
	}
	_, ok := recurrenceDays[r]
	return ok
}

// NextOccurrence returns from shifted by one recurrence unit. Monthly is a
// fixed 30 days, not a calendar month.
func NextOccurrence(r domain.Recurrence, from time.Time) (time.Time, error) {
	days, ok := recurrenceDays[r]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRecurrence, r)
	}
	return from.AddDate(0, 0, days), nil
}

// CompleteDelivery settles a delivery attempt for a pending reminder and
// returns the updated reminder. A successful delivery of a recurring reminder
// also returns exactly one pending successor with the same payload, scheduled
// one unit after the original. A failed delivery spawns nothing.
func CompleteDelivery(rem domain.Reminder, delivered bool, at time.Time) (domain.Reminder, *domain.Reminder, error) {
	if rem.Status != domain.ReminderPending {
		return rem, nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDelivered, rem.ID, rem.Status)
	}
	if !ValidRecurrence(rem.Recurrence) {
		return rem, nil, fmt.Errorf("%w: %q on reminder %s", ErrUnknownRecurrence, rem.Recurrence, rem.ID)
	}

	if !delivered {
		rem.Status = domain.ReminderFailed
		rem.UpdatedAt = at
		return rem, nil, nil
	}

	rem.Status = domain.ReminderSent
	rem.SentDate = &at
	rem.UpdatedAt = at

	if rem.Recurrence == domain.RecurrenceNone {
		return rem, nil, nil
	}

	next, err := NextOccurrence(rem.Recurrence, rem.ScheduledDate)
	if err != nil {
		return rem, nil, err
	}

	successor := rem
	successor.ID = uuid.New()
	successor.ScheduledDate = next
	successor.SentDate = nil
	successor.Status = domain.ReminderPending
	successor.CreatedAt = at
	successor.UpdatedAt = at

	return rem, &successor, nil
}

// CancelReminder stops a pending reminder from being delivered.
func CancelReminder(rem *domain.Reminder) error {
	if rem.Status != domain.ReminderPending {
		return fmt.Errorf("%w: reminder %s -> %s", ErrInvalidTransition, rem.Status, domain.ReminderCancelled)
	}
	rem.Status = domain.ReminderCancelled
	return nil
}
