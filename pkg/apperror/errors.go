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

// ---- Security & Authentication (SEC) ----

func ErrInvalidAccessKey() *AppError {
	return New("SEC_001", "Invalid access key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

func ErrInvalidCallback() *AppError {
	return New("SEC_005", "Provider callback could not be verified", http.StatusUnauthorized)
}

// ---- Session (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Catalog & Cart (CART) ----

func ErrProductNotFound(productID string) *AppError {
	return New("CART_001", fmt.Sprintf("product %q not found", productID), http.StatusNotFound)
}

func ErrInvalidFaceValue(productID string, amount int64) *AppError {
	return New("CART_002", fmt.Sprintf("%d is not a face value of %q", amount, productID), http.StatusBadRequest)
}

func ErrCartEmpty() *AppError {
	return New("CART_003", "Cart is empty", http.StatusBadRequest)
}

// ---- Vault (VAULT) ----

func ErrPoolDepleted(poolKey string) *AppError {
	return New("VAULT_001", fmt.Sprintf("no code left in pool %s", poolKey), http.StatusConflict)
}

func ErrEmptyBatch() *AppError {
	return New("VAULT_002", "Import batch contains no codes", http.StatusBadRequest)
}

// ---- Payment (PAY) ----

func ErrPaymentKeyUnavailable(err error) *AppError {
	return Wrap("PAY_101", "Payment is disabled: public key unavailable", http.StatusServiceUnavailable, err)
}

func ErrCapabilityUnavailable(err error) *AppError {
	return Wrap("PAY_102", "Checkout widget failed to load", http.StatusBadGateway, err)
}

func ErrCheckoutInProgress() *AppError {
	return New("PAY_103", "A checkout attempt is already in progress", http.StatusConflict)
}

func ErrAmountMismatch(expected, got int64) *AppError {
	return New("PAY_104", fmt.Sprintf("Charged amount %d does not match cart total %d", got, expected), http.StatusConflict)
}

func ErrAttemptResolved() *AppError {
	return New("PAY_105", "Checkout attempt is already resolved", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// PayloadTooLarge returns a VAL_002 error for an oversized request body.
func PayloadTooLarge(limit int64) *AppError {
	return New("VAL_002", fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}
