package apperror

import (
	"errors"
	"net/http"
)

// AppError is the error type services return. The Code doubles as the
// HTTP status the handler layer responds with.
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError points a validation failure at one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Sentinel errors for the common outcomes.
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}
)

// NewAppError builds an error with an arbitrary status code.
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError wraps per-field failures into one 422 response.
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError names the resource that was not found.
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError is for duplicates and guarded updates that lost.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError rejects input the binding layer could not catch.
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewInvalidStateError creates an error for a state machine operation invoked
// from the wrong state. Like calculation integrity errors these abort the
// operation outright; they are never defaulted or retried internally.
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewCalculationIntegrityError creates an error for arithmetic invariant
// violations (computed parts not summing to their total, a state machine
// operation invoked from the wrong state). These indicate a bug, so they map
// to 500 and must be propagated, never caught-and-logged.
func NewCalculationIntegrityError(message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: "Calculation integrity violation: " + message,
	}
}

// IsAppError reports whether err carries an AppError anywhere in its
// chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError unwraps err to an AppError, defaulting unknown errors
// to a 500 so nothing leaks with a misleading status.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
