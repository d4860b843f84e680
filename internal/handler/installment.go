package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/service"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/response"
)

// InstallmentService is the set of use cases the HTTP API exposes.
type InstallmentService interface {
	CreatePolicy(ctx context.Context, request *domain.CreatePolicyRequest) (*domain.CreatePolicyResponse, error)
	GetPolicy(ctx context.Context, id uuid.UUID) (*domain.PolicyDetailResponse, error)
	ListInstallments(ctx context.Context, policyID uuid.UUID) ([]*domain.InstallmentResponse, error)
	PayInstallment(ctx context.Context, id uuid.UUID, request *domain.PayInstallmentRequest) (*domain.PaymentResult, error)
	UnpayInstallment(ctx context.Context, id uuid.UUID) (*domain.PaymentResult, error)
	CancelInstallment(ctx context.Context, id uuid.UUID) (*domain.Installment, error)
	Overdue(ctx context.Context, view string) (*domain.OverdueResponse, error)
	Upcoming(ctx context.Context, days int) ([]*domain.UpcomingInstallment, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
	CalendarMonth(ctx context.Context, year, month int) (*service.CalendarMonth, error)
	Convert(input string) (*service.Conversion, error)
	CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error)
	ListReminders(ctx context.Context, policyID uuid.UUID) ([]*domain.Reminder, error)
	CancelReminder(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
}

type InstallmentHandler struct {
	service   InstallmentService
	validator *validator.Validate
}

func NewInstallmentHandler(service InstallmentService) *InstallmentHandler {
	v := validator.New()
	// Amounts are validated by value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return &InstallmentHandler{
		service:   service,
		validator: v,
	}
}

// CreatePolicy handles POST /api/v1/policies
func (h *InstallmentHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var request domain.CreatePolicyRequest
	if !h.decode(w, r, &request) {
		return
	}

	resp, err := h.service.CreatePolicy(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, resp)
}

// GetPolicy handles GET /api/v1/policies/{id}
func (h *InstallmentHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetPolicy(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, resp)
}

// ListInstallments handles GET /api/v1/policies/{id}/installments
func (h *InstallmentHandler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListInstallments(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, items)
}

// PayInstallment handles POST /api/v1/installments/{id}/pay
func (h *InstallmentHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var request domain.PayInstallmentRequest
	if r.ContentLength != 0 && !h.decode(w, r, &request) {
		return
	}

	result, err := h.service.PayInstallment(r.Context(), id, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// UnpayInstallment handles POST /api/v1/installments/{id}/unpay
func (h *InstallmentHandler) UnpayInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.service.UnpayInstallment(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// CancelInstallment handles POST /api/v1/installments/{id}/cancel
func (h *InstallmentHandler) CancelInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	inst, err := h.service.CancelInstallment(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, inst)
}

// Overdue handles GET /api/v1/installments/overdue?view=immediate|dashboard
func (h *InstallmentHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Overdue(r.Context(), r.URL.Query().Get("view"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, resp)
}

// Upcoming handles GET /api/v1/installments/upcoming?days=N
func (h *InstallmentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, "days must be a positive integer", err)
			return
		}
		days = n
	}

	items, err := h.service.Upcoming(r.Context(), days)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, items)
}

// Statistics handles GET /api/v1/statistics
func (h *InstallmentHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, stats)
}

// CalendarMonth handles GET /api/v1/calendar/{year}/{month}
func (h *InstallmentHandler) CalendarMonth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		response.BadRequest(w, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		response.BadRequest(w, "Invalid month", err)
		return
	}

	cal, err := h.service.CalendarMonth(r.Context(), year, month)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, cal)
}

// Convert handles GET /api/v1/jalali/convert?date=...
func (h *InstallmentHandler) Convert(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date is required", nil)
		return
	}

	conv, err := h.service.Convert(date)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, conv)
}

// CreateReminder handles POST /api/v1/reminders
func (h *InstallmentHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateReminderRequest
	if !h.decode(w, r, &request) {
		return
	}

	rem, err := h.service.CreateReminder(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, rem)
}

// ListReminders handles GET /api/v1/policies/{id}/reminders
func (h *InstallmentHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reminders, err := h.service.ListReminders(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, reminders)
}

// CancelReminder handles POST /api/v1/reminders/{id}/cancel
func (h *InstallmentHandler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rem, err := h.service.CancelReminder(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, rem)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *InstallmentHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation failed", customError.WrapValidation(err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid id", err)
		return uuid.Nil, false
	}
	return id, true
}
