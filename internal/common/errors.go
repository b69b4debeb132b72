package common

import (
	"errors"
	"net/http"
)

// Error codes shared by handlers.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeRenderFailure      = "RENDER_FAILURE"
	CodeInternal           = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var target *AppError
	if !errors.As(err, &target) {
		return false
	}
	return target.Code == code
}

// Unauthenticated is returned when no valid identity accompanies a request.
func Unauthenticated(err error) *AppError {
	return NewAppError(CodeUnauthorized, "authentication required", http.StatusUnauthorized, err)
}

// ValidationFailure carries per-field messages keyed by field path.
func ValidationFailure(fields map[string]string) *AppError {
	appErr := NewAppError(CodeValidation, "request validation failed", http.StatusBadRequest, nil)
	appErr.Details = fields
	return appErr
}

// PersistenceFailure hides store errors behind a generic message.
func PersistenceFailure(err error) *AppError {
	return NewAppError(CodePersistenceFailure, "internal server error", http.StatusInternalServerError, err)
}

// RenderFailure hides document engine errors behind a generic message.
func RenderFailure(err error) *AppError {
	return NewAppError(CodeRenderFailure, "internal server error", http.StatusInternalServerError, err)
}
