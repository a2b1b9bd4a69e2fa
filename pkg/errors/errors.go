package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("code=%d, message=%s, details=%s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// Unwrap returns the error this AppError was built from, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches AppErrors by code and message so wrapped copies of the predefined
// errors still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Common errors
var (
	ErrNotFound          = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrBadRequest        = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer    = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrStoreNotFound     = &AppError{Code: http.StatusNotFound, Message: "Store not found"}
	ErrUpstream          = &AppError{Code: http.StatusBadGateway, Message: "Upstream analytics service failed"}
	ErrInvalidDateRange  = &AppError{Code: http.StatusBadRequest, Message: "Invalid date range"}
	ErrUnknownReportType = &AppError{Code: http.StatusBadRequest, Message: "Unknown report type"}
	ErrSuperseded        = &AppError{Code: http.StatusConflict, Message: "Superseded by a newer refresh"}
)

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an error
func WithDetails(err *AppError, details string) *AppError {
	return &AppError{
		Code:    err.Code,
		Message: err.Message,
		Details: details,
		cause:   err.cause,
	}
}

// Wrap attaches cause to a copy of err, using the cause's message as details.
func Wrap(err *AppError, cause error) *AppError {
	out := &AppError{Code: err.Code, Message: err.Message, cause: cause}
	if cause != nil {
		out.Details = cause.Error()
	}
	return out
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetStatusCode returns the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
