package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "pending"
	InstallmentPaid      InstallmentStatus = "paid"
	InstallmentOverdue   InstallmentStatus = "overdue"
	InstallmentCancelled InstallmentStatus = "cancelled"
)

// Open reports whether the installment still expects a payment.
func (s InstallmentStatus) Open() bool {
	return s == InstallmentPending || s == InstallmentOverdue
}

// Installment is one persisted entry of a policy's payment schedule.
// Amount and DueDate are fixed at creation.
type Installment struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	PolicyID         uuid.UUID         `json:"policy_id" db:"policy_id"`
	Sequence         int               `json:"sequence" db:"installment_number"`
	Amount           decimal.Decimal   `json:"amount" db:"amount"`
	DueDate          time.Time         `json:"due_date" db:"due_date"`
	Status           InstallmentStatus `json:"status" db:"status"`
	PaymentDate      *time.Time        `json:"payment_date,omitempty" db:"payment_date"`
	PaymentMethod    *string           `json:"payment_method,omitempty" db:"payment_method"`
	TransactionRef   *string           `json:"transaction_ref,omitempty" db:"transaction_ref"`
	Notes            *string           `json:"notes,omitempty" db:"notes"`
	ReminderSent     bool              `json:"reminder_sent" db:"is_reminder_sent"`
	ReminderSentDate *time.Time        `json:"reminder_sent_date,omitempty" db:"reminder_sent_date"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// DTOs

type PayInstallmentRequest struct {
	PaymentDate    string `json:"payment_date" validate:"omitempty"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=cash card transfer cheque online"`
	TransactionRef string `json:"transaction_ref" validate:"omitempty,max=100"`
	Notes          string `json:"notes" validate:"omitempty,max=500"`
}

type InstallmentResponse struct {
	*Installment
	DueDateJalali     string `json:"due_date_jalali"`
	PaymentDateJalali string `json:"payment_date_jalali,omitempty"`
	AmountFormatted   string `json:"amount_formatted"`
}

type PaymentResult struct {
	Installment    *Installment `json:"installment"`
	AllPaid        bool         `json:"all_paid"`
	PolicyArchived bool         `json:"policy_archived"`
}

// OverdueInstallment pairs an installment with how late it is.
type OverdueInstallment struct {
	*Installment
	DueDateJalali string `json:"due_date_jalali"`
	DaysOverdue   int    `json:"days_overdue"`
}

// OverdueGroup collects the overdue installments of a single policy.
type OverdueGroup struct {
	PolicyID     uuid.UUID             `json:"policy_id"`
	PolicyNumber string                `json:"policy_number"`
	HolderName   string                `json:"holder_name"`
	Installments []*OverdueInstallment `json:"installments"`
	TotalDue     decimal.Decimal       `json:"total_due"`
	MaxDays      int                   `json:"max_days_overdue"`
}

type OverdueResponse struct {
	View          string          `json:"view"`
	ThresholdDays int             `json:"threshold_days"`
	Groups        []*OverdueGroup `json:"groups"`
	Count         int             `json:"count"`
	TotalDue      decimal.Decimal `json:"total_due"`
}

type UpcomingInstallment struct {
	*Installment
	DueDateJalali string `json:"due_date_jalali"`
	DaysUntilDue  int    `json:"days_until_due"`
}

type Statistics struct {
	Total          int             `json:"total"`
	Paid           int             `json:"paid"`
	Pending        int             `json:"pending"`
	Overdue        int             `json:"overdue"`
	Cancelled      int             `json:"cancelled"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	ActivePolicies int             `json:"active_policies"`
}
