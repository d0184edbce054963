package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LED) ----

// ErrInvalidArgument covers malformed input: non-positive amount, unknown
// posting type. Caller-fixable, never retried.
func ErrInvalidArgument(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}

func ErrAccountNotFound(id string) *AppError {
	return New("LED_002", fmt.Sprintf("Account %s not found", id), http.StatusNotFound)
}

func ErrDuplicateKey(id string) *AppError {
	return New("LED_003", fmt.Sprintf("Account %s already exists", id), http.StatusConflict)
}

func ErrNegativeBalanceNotAllowed() *AppError {
	return New("LED_004", "Account does not allow a negative balance", http.StatusUnprocessableEntity)
}

func ErrAmountLimitExceeded(limit string) *AppError {
	return New("LED_005", fmt.Sprintf("Amount exceeds the per-posting limit of %s", limit), http.StatusUnprocessableEntity)
}

func ErrEditNotPermitted() *AppError {
	return New("LED_006", "Caller lacks the capability required for this edit", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Store & Infrastructure (SYS) ----

// ErrStoreWriteFailed signals a definite store failure: the write did not land.
// Safe to retry with the same idempotency key.
func ErrStoreWriteFailed(err error) *AppError {
	return Wrap("SYS_001", "Store write failed, no posting was committed", http.StatusBadGateway, err)
}

// ErrIndeterminate signals an unknown write outcome (timeout or disconnect
// after the append was issued). Retrying without an idempotency key risks a
// duplicate posting.
func ErrIndeterminate(err error) *AppError {
	return Wrap("SYS_002", "Write outcome unknown, retry only with the same idempotency key", http.StatusGatewayTimeout, err)
}

func ErrStoreReadFailed(err error) *AppError {
	return Wrap("SYS_003", "Store read failed", http.StatusBadGateway, err)
}

// ErrCancelled signals caller-side cancellation before any write was issued.
func ErrCancelled(err error) *AppError {
	return Wrap("SYS_004", "Operation cancelled before commit, no posting was committed", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_005 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_005", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_001-style validation error.
func Validation(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}
