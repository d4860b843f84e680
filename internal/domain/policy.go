package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PolicyStatusActive    = "active"
	PolicyStatusArchived  = "archived"
	PolicyStatusCancelled = "cancelled"
)

// Policy represents an insurance policy paid off in installments
type Policy struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	PolicyNumber     string          `json:"policy_number" db:"policy_number"`
	HolderName       string          `json:"holder_name" db:"holder_name"`
	NationalID       string          `json:"national_id" db:"national_id"`
	MobileNumber     *string         `json:"mobile_number,omitempty" db:"mobile_number"`
	PolicyType       string          `json:"policy_type" db:"policy_type"`
	InsuranceCompany string          `json:"insurance_company" db:"insurance_company"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	DownPayment      decimal.Decimal `json:"down_payment" db:"down_payment"`
	InstallmentCount int             `json:"installment_count" db:"installment_count"`
	IntervalDays     int             `json:"interval_days" db:"interval_days"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	EndDate          *time.Time      `json:"end_date,omitempty" db:"end_date"`
	Status           string          `json:"status" db:"status"`
	Description      *string         `json:"description,omitempty" db:"description"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Financed returns the amount left to schedule after the down payment.
func (p *Policy) Financed() decimal.Decimal {
	return p.TotalAmount.Sub(p.DownPayment)
}

// DTOs for requests and responses

// CreatePolicyRequest carries Jalali dates as YYYY/MM/DD strings.
type CreatePolicyRequest struct {
	PolicyNumber     string          `json:"policy_number" validate:"required,max=50"`
	HolderName       string          `json:"holder_name" validate:"required,max=100"`
	NationalID       string          `json:"national_id" validate:"omitempty,max=20"`
	MobileNumber     string          `json:"mobile_number" validate:"omitempty,max=20"`
	PolicyType       string          `json:"policy_type" validate:"omitempty,max=50"`
	InsuranceCompany string          `json:"insurance_company" validate:"omitempty,max=100"`
	TotalAmount      decimal.Decimal `json:"total_amount" validate:"required,gt=0"`
	DownPayment      decimal.Decimal `json:"down_payment" validate:"gte=0"`
	InstallmentCount int             `json:"installment_count" validate:"required,gt=0,lte=360"`
	IntervalDays     int             `json:"interval_days" validate:"omitempty,gt=0"`
	StartDate        string          `json:"start_date" validate:"required"`
	EndDate          string          `json:"end_date" validate:"omitempty"`
	Description      string          `json:"description" validate:"omitempty,max=500"`
	Reminders        bool            `json:"reminders"`
}

type CreatePolicyResponse struct {
	Policy       *Policy        `json:"policy"`
	Installments []*Installment `json:"installments"`
	Reminders    int            `json:"reminders_scheduled"`
}

type PolicyDetailResponse struct {
	Policy       *Policy                `json:"policy"`
	StartJalali  string                 `json:"start_date_jalali"`
	Installments []*InstallmentResponse `json:"installments"`
	AllPaid      bool                   `json:"all_paid"`
}
