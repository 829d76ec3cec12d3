package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of client error.
type ErrorCode string

const (
	// ErrCodeValidation indicates input rejected locally before any remote call.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeRemoteRejected indicates the auth service answered with a failure status.
	ErrCodeRemoteRejected ErrorCode = "remote_rejected"
	// ErrCodeNoActiveSession indicates a session-scoped operation ran without a session.
	ErrCodeNoActiveSession ErrorCode = "no_active_session"
	// ErrCodeUnreachable indicates a transport failure with no response.
	ErrCodeUnreachable ErrorCode = "unreachable"
	// ErrCodeInternal indicates a local failure (encoding, storage).
	ErrCodeInternal ErrorCode = "internal"
)

// ErrTokenRejected marks a 401/403 answer to a call that carried the bearer token.
// It is always wrapped inside a RemoteRejected AppError.
var ErrTokenRejected = errors.New("bearer token rejected")

// AppError represents a structured client error with a code, a user-facing message,
// and an optional cause. It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is safe to show to the end user
	Message string
	// Cause is the underlying error (optional)
	Cause error
	// Field names the offending input for validation errors (optional)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// RemoteRejected creates an error for a failure answered by the remote service.
func RemoteRejected(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeRemoteRejected,
		Message: message,
		Cause:   cause,
	}
}

// NoActiveSession creates an error for operations that need a session.
func NoActiveSession(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNoActiveSession,
		Message: message,
	}
}

// Unreachable wraps a transport failure.
func Unreachable(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeUnreachable,
		Message: message,
		Cause:   cause,
	}
}

// Internal wraps a local failure such as a storage or encoding error.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsRemoteRejected checks if an error is a RemoteRejected error.
func IsRemoteRejected(err error) bool {
	return isCode(err, ErrCodeRemoteRejected)
}

// IsNoActiveSession checks if an error is a NoActiveSession error.
func IsNoActiveSession(err error) bool {
	return isCode(err, ErrCodeNoActiveSession)
}

// IsUnreachable checks if an error is an Unreachable error.
func IsUnreachable(err error) bool {
	return isCode(err, ErrCodeUnreachable)
}

// IsTokenRejected reports whether the remote service refused the bearer token.
func IsTokenRejected(err error) bool {
	return errors.Is(err, ErrTokenRejected)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the user-facing message carried by err, or fallback when
// err carries none.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
