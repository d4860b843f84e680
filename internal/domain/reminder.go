package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Recurrence is the repeat unit of a reminder. The empty value means one-off.
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

const (
	ChannelSMS    = "sms"
	ChannelEmail  = "email"
	ChannelSystem = "system"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Reminder struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	PolicyID       *uuid.UUID     `json:"policy_id,omitempty" db:"policy_id"`
	InstallmentID  *uuid.UUID     `json:"installment_id,omitempty" db:"installment_id"`
	Channel        string         `json:"channel" db:"channel"`
	Title          string         `json:"title" db:"title"`
	Message        string         `json:"message" db:"message"`
	ScheduledDate  time.Time      `json:"scheduled_date" db:"scheduled_date"`
	SentDate       *time.Time     `json:"sent_date,omitempty" db:"sent_date"`
	Status         ReminderStatus `json:"status" db:"status"`
	Recurrence     Recurrence     `json:"recurrence,omitempty" db:"recurrence"`
	Priority       string         `json:"priority" db:"priority"`
	RecipientPhone *string        `json:"recipient_phone,omitempty" db:"recipient_phone"`
	RecipientEmail *string        `json:"recipient_email,omitempty" db:"recipient_email"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateReminderRequest schedules a reminder. ScheduledDate is Jalali
// YYYY/MM/DD. An installment implies its policy.
type CreateReminderRequest struct {
	PolicyID       *uuid.UUID `json:"policy_id"`
	InstallmentID  *uuid.UUID `json:"installment_id"`
	Channel        string     `json:"channel" validate:"omitempty,oneof=sms email system"`
	Title          string     `json:"title" validate:"required,max=200"`
	Message        string     `json:"message" validate:"required,max=1000"`
	ScheduledDate  string     `json:"scheduled_date" validate:"required"`
	Recurrence     Recurrence `json:"recurrence" validate:"omitempty,oneof=daily weekly monthly"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=low normal high"`
	RecipientPhone string     `json:"recipient_phone" validate:"omitempty,max=20"`
	RecipientEmail string     `json:"recipient_email" validate:"omitempty,email,max=100"`
}

// ReminderRunStats summarizes one pass over due reminders.
type ReminderRunStats struct {
	Total     int            `json:"total"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Spawned   int            `json:"spawned"`
	Skipped   int            `json:"skipped"`
	ByChannel map[string]int `json:"by_channel"`
}

// SweepResult summarizes one status sweep.
type SweepResult struct {
	Evaluated int `json:"evaluated"`
	Changed   int `json:"changed"`
	Conflicts int `json:"conflicts"`
	Anomalies int `json:"anomalies"`
}
