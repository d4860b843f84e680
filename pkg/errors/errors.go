package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrPolicyAlreadyExists = errors.New("policy already exists")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrReminderNotFound    = errors.New("reminder not found")
	ErrPolicyNotActive     = errors.New("policy is not active")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidDate         = "INVALID_DATE"
	ErrCodeInvalidSchedule     = "INVALID_SCHEDULE"
	ErrCodeConversionOverflow  = "CONVERSION_OVERFLOW"
	ErrCodePolicyNotFound      = "POLICY_NOT_FOUND"
	ErrCodePolicyAlreadyExists = "POLICY_ALREADY_EXISTS"
	ErrCodePolicyNotActive     = "POLICY_NOT_ACTIVE"
	ErrCodeInstallmentNotFound = "INSTALLMENT_NOT_FOUND"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeReminderNotFound    = "REMINDER_NOT_FOUND"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeLockError           = "LOCK_ERROR"
	ErrCodeMigrationFailed     = "MIGRATION_FAILED"
)

var httpStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidDate:         http.StatusBadRequest,
	ErrCodeInvalidSchedule:     http.StatusBadRequest,
	ErrCodeConversionOverflow:  http.StatusBadRequest,
	ErrCodePolicyNotFound:      http.StatusNotFound,
	ErrCodeInstallmentNotFound: http.StatusNotFound,
	ErrCodeReminderNotFound:    http.StatusNotFound,
	ErrCodePolicyAlreadyExists: http.StatusConflict,
	ErrCodePolicyNotActive:     http.StatusConflict,
	ErrCodeInvalidTransition:   http.StatusConflict,
	ErrCodeLockError:           http.StatusServiceUnavailable,
}

// HTTPStatus maps err to a response status. Errors without a business code
// are internal errors.
func HTTPStatus(err error) int {
	var be *BusinessError
	if errors.As(err, &be) {
		if status, ok := httpStatus[be.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the business code carried by err, or "" if there is none.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapPolicyNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodePolicyNotFound,
		fmt.Sprintf("Policy with ID %s not found", id),
		ErrPolicyNotFound,
	)
}

func WrapPolicyAlreadyExists(number string) *BusinessError {
	return NewBusinessError(
		ErrCodePolicyAlreadyExists,
		fmt.Sprintf("Policy with number %s already exists", number),
		ErrPolicyAlreadyExists,
	)
}

func WrapPolicyNotActive(id, status string) *BusinessError {
	return NewBusinessError(
		ErrCodePolicyNotActive,
		fmt.Sprintf("Policy with ID %s is %s", id, status),
		ErrPolicyNotActive,
	)
}

func WrapInstallmentNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", id),
		ErrInstallmentNotFound,
	)
}

func WrapReminderNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeReminderNotFound,
		fmt.Sprintf("Reminder with ID %s not found", id),
		ErrReminderNotFound,
	)
}

func WrapValidation(err error) *BusinessError {
	return NewBusinessError(ErrCodeValidation, "request validation failed", err)
}

func WrapInvalidDate(value string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDate,
		fmt.Sprintf("Invalid date %q", value),
		err,
	)
}

func WrapInvalidSchedule(err error) *BusinessError {
	return NewBusinessError(ErrCodeInvalidSchedule, "installment schedule cannot be generated", err)
}

func WrapConversionOverflow(err error) *BusinessError {
	return NewBusinessError(ErrCodeConversionOverflow, "date outside the supported calendar range", err)
}

func WrapInvalidTransition(err error) *BusinessError {
	return NewBusinessError(ErrCodeInvalidTransition, "status change not allowed", err)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapLockError(key string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLockError,
		fmt.Sprintf("Could not acquire lock %s", key),
		err,
	)
}

func WrapMigrationFailed(err error) *BusinessError {
	return NewBusinessError(ErrCodeMigrationFailed, "schema migration failed", err)
}
