// Package apperror provides structured error handling for the backend.
// All business errors must use AppError so callers can distinguish them
// by machine-readable code and the HTTP layer can map them to responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Every precondition in the ledger/inventory core has its own
// code so the caller never has to parse messages.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Inventory state violations (422)
	CodeItemNotAvailable = "ITEM_NOT_AVAILABLE"
	CodeItemSold         = "ITEM_SOLD"

	// Ledger / orchestration violations (422)
	CodeCustomerRequired              = "CUSTOMER_REQUIRED"
	CodeInsufficientReversibleBalance = "INSUFFICIENT_REVERSIBLE_BALANCE"

	// Cash register session violations (422)
	CodeSessionAlreadyOpen = "SESSION_ALREADY_OPEN"
	CodeNoOpenSession      = "NO_OPEN_SESSION"
	CodeSessionClosed      = "SESSION_CLOSED"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicateIMEI          = "DUPLICATE_IMEI"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the backend.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, IMEIs, amounts)
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

// --- Factory functions ---

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

// NewItemNotAvailable is returned when a sale references an item that is not
// currently available. Always carries the IMEI.
func NewItemNotAvailable(imei string) *AppError {
	return &AppError{
		Code:       CodeItemNotAvailable,
		Message:    fmt.Sprintf("item %s is not available for sale", imei),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"imei": imei},
	}
}

// NewItemSold is returned when an operation would archive or un-purchase an
// item that is currently sold. Always carries the IMEI.
func NewItemSold(imei string) *AppError {
	return &AppError{
		Code:       CodeItemSold,
		Message:    fmt.Sprintf("item %s is sold and cannot be removed", imei),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"imei": imei},
	}
}

// NewDuplicateIMEI is returned on item creation with an IMEI that already
// exists in inventory.
func NewDuplicateIMEI(imei string) *AppError {
	return &AppError{
		Code:       CodeDuplicateIMEI,
		Message:    fmt.Sprintf("item with IMEI %s already exists", imei),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"imei": imei},
	}
}

// NewCustomerRequired is returned when a credit or partial sale has no
// resolvable customer.
func NewCustomerRequired() *AppError {
	return &AppError{
		Code:       CodeCustomerRequired,
		Message:    "a customer is required when the sale leaves an unpaid balance",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientReversibleBalance is returned when deleting a transaction
// would drive the counterparty balance below zero relative to recorded payments.
func NewInsufficientReversibleBalance(entityID any, balance, impact int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientReversibleBalance,
		Message:    "counterparty balance is lower than the amount being reversed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entity_id":      entityID,
			"balance":        balance,
			"balance_impact": impact,
		},
	}
}

// NewSessionAlreadyOpen is returned when opening a cash register session while
// another one is still open.
func NewSessionAlreadyOpen(sessionID any) *AppError {
	return &AppError{
		Code:       CodeSessionAlreadyOpen,
		Message:    "a cash register session is already open",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"session_id": sessionID},
	}
}

// NewNoOpenSession is returned when an operation requires an open cash
// register session and none exists.
func NewNoOpenSession() *AppError {
	return &AppError{
		Code:       CodeNoOpenSession,
		Message:    "no cash register session is open",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewSessionClosed is returned when modifying a transaction attributed to a
// closed cash register session.
func NewSessionClosed(sessionID any) *AppError {
	return &AppError{
		Code:       CodeSessionClosed,
		Message:    "transaction belongs to a closed cash register session",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"session_id": sessionID},
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

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
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

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

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

// IsCode checks whether err carries the given error code.
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
