package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", WrapPolicyNotFound("x"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("pay: %w", WrapInstallmentNotFound("x")), http.StatusNotFound},
		{"duplicate", WrapPolicyAlreadyExists("1402-1"), http.StatusConflict},
		{"transition", WrapInvalidTransition(errors.New("paid -> cancelled")), http.StatusConflict},
		{"bad date", WrapInvalidDate("1402/13/01", nil), http.StatusBadRequest},
		{"lock", WrapLockError("policy:1", nil), http.StatusServiceUnavailable},
		{"database", WrapDatabaseError(errors.New("disk I/O")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestBusinessError_Unwrap(t *testing.T) {
	err := WrapPolicyNotFound("abc")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
	assert.Equal(t, ErrCodePolicyNotFound, Code(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, "", Code(errors.New("x")))
	assert.Contains(t, err.Error(), "POLICY_NOT_FOUND")

	cause := errors.New("constraint failed")
	assert.ErrorIs(t, WrapDatabaseError(cause), cause)
}
