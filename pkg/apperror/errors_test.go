package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_004", "Account does not allow a negative balance", http.StatusUnprocessableEntity),
			expected: "[LED_004] Account does not allow a negative balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "Store write failed", http.StatusBadGateway, fmt.Errorf("connection refused")),
			expected: "[SYS_001] Store write failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusBadGateway, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("LED_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		appErr     *AppError
		wantCode   string
		wantStatus int
	}{
		{"invalid argument", ErrInvalidArgument("amount must be positive"), "LED_001", http.StatusBadRequest},
		{"account not found", ErrAccountNotFound("00000000000001"), "LED_002", http.StatusNotFound},
		{"duplicate key", ErrDuplicateKey("00000000000001"), "LED_003", http.StatusConflict},
		{"negative balance", ErrNegativeBalanceNotAllowed(), "LED_004", http.StatusUnprocessableEntity},
		{"amount limit", ErrAmountLimitExceeded("5000"), "LED_005", http.StatusUnprocessableEntity},
		{"edit not permitted", ErrEditNotPermitted(), "LED_006", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.appErr.Code)
			assert.Equal(t, tt.wantStatus, tt.appErr.HTTPStatus)
		})
	}
}

func TestStoreErrors_DistinguishDefiniteFromIndeterminate(t *testing.T) {
	cause := fmt.Errorf("write: network unreachable")

	definite := ErrStoreWriteFailed(cause)
	unknown := ErrIndeterminate(cause)

	// An operator must be able to tell "safe to retry" from "unknown outcome".
	assert.NotEqual(t, definite.Code, unknown.Code)
	assert.Equal(t, "SYS_001", definite.Code)
	assert.Equal(t, "SYS_002", unknown.Code)
	assert.True(t, errors.Is(definite, cause))
	assert.True(t, errors.Is(unknown, cause))
}

func TestErrAccountNotFound_IncludesID(t *testing.T) {
	err := ErrAccountNotFound("12345678901234")
	assert.Contains(t, err.Message, "12345678901234")
}
