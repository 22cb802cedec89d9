// Package apperror provides structured error handling for the platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes grouped by concern
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeNegativeStock          = "NEGATIVE_STOCK"
	CodeInvalidStatus          = "INVALID_STATUS"
	CodeInvalidOrderStatus     = "INVALID_ORDER_STATUS"
	CodeCannotCancelCompleted  = "CANNOT_CANCEL_COMPLETED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidTransition creates an error for operations forbidden by current state (422).
func NewInvalidTransition(entity, currentStatus, action string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot %s %s in status %q", action, entity, currentStatus),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entity": entity,
			"status": currentStatus,
			"action": action,
		},
	}
}

// StockShortage describes one line whose requested quantity exceeds available stock.
type StockShortage struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// NewInsufficientStock creates a stock shortage error enumerating every offending line.
func NewInsufficientStock(shortages []StockShortage) *AppError {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductName, s.Requested, s.Available))
	}
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock: " + strings.Join(parts, "; "),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"items": shortages},
	}
}

// NewNegativeStock creates the defensive error raised when a quantity mutation
// would drive stock below zero. Reaching it after a passed pre-check indicates
// a race, but the ledger checks regardless.
func NewNegativeStock(productID string, before, delta int64) *AppError {
	return &AppError{
		Code:       CodeNegativeStock,
		Message:    fmt.Sprintf("stock change would result in negative quantity (%d%+d)", before, delta),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"before":     before,
			"delta":      delta,
		},
	}
}

// NewInvalidStatus creates an error for an unrecognized status value (422).
func NewInvalidStatus(status string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatus,
		Message:    fmt.Sprintf("unknown status %q", status),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"status": status},
	}
}

// NewInvalidOrderStatus creates an error for voucher-from-order requests
// against an order that is not completed (422).
func NewInvalidOrderStatus(orderID, status string) *AppError {
	return &AppError{
		Code:       CodeInvalidOrderStatus,
		Message:    fmt.Sprintf("order must be completed, current status is %q", status),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"order_id": orderID, "status": status},
	}
}

// NewCannotCancelCompleted creates an error for cancelling a completed order (422).
func NewCannotCancelCompleted(orderID string) *AppError {
	return &AppError{
		Code:       CodeCannotCancelCompleted,
		Message:    "completed orders cannot be cancelled",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"order_id": orderID},
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks if error carries the given application code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsInvalidTransition checks if error is CodeInvalidTransition.
func IsInvalidTransition(err error) bool {
	return IsCode(err, CodeInvalidTransition)
}

// IsInsufficientStock checks if error is CodeInsufficientStock.
func IsInsufficientStock(err error) bool {
	return IsCode(err, CodeInsufficientStock)
}

// IsConcurrentModification checks if error is CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}
