package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a stable, machine-checkable category of application error.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller has no valid identity.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeForbidden indicates the caller's role does not allow the operation.
	ErrCodeForbidden ErrorCode = "insufficient_permissions"
	// ErrCodeInvalidRequest indicates malformed or schema-invalid input.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	// ErrCodeNotFound indicates a referenced job or entity is absent.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInvalidState indicates the operation is not legal for the entity's current state.
	ErrCodeInvalidState ErrorCode = "invalid_state"
	// ErrCodeNoActiveConfiguration indicates a score-based query ran with no active configuration.
	ErrCodeNoActiveConfiguration ErrorCode = "no_active_configuration"
	// ErrCodeStoreFailure indicates a durable-store call failed.
	ErrCodeStoreFailure ErrorCode = "store_failure"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
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

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message}
}

// InvalidRequest creates a new InvalidRequest error.
func InvalidRequest(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidRequest, Message: message}
}

// InvalidRequestf creates a new InvalidRequest error with formatted message.
func InvalidRequestf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidField creates a new InvalidRequest error for a specific field.
// The message is prefixed with the field name so the detail string stands on its own.
func InvalidField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRequest,
		Message: field + ": " + message,
		Field:   field,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidState creates a new InvalidState error.
func InvalidState(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidState, Message: message}
}

// InvalidStatef creates a new InvalidState error with formatted message.
func InvalidStatef(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NoActiveConfiguration creates the error returned when no scoring configuration is active.
func NoActiveConfiguration() *AppError {
	return &AppError{
		Code:    ErrCodeNoActiveConfiguration,
		Message: "no active weight configuration; activate a configuration first",
	}
}

// StoreFailure wraps a durable-store error. The cause is always kept so its
// message reaches the caller.
func StoreFailure(err error, message string) *AppError {
	return Wrap(err, ErrCodeStoreFailure, message)
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

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return isCode(err, ErrCodeForbidden) }

// IsInvalidRequest checks if an error is an InvalidRequest error.
func IsInvalidRequest(err error) bool { return isCode(err, ErrCodeInvalidRequest) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsInvalidState checks if an error is an InvalidState error.
func IsInvalidState(err error) bool { return isCode(err, ErrCodeInvalidState) }

// IsNoActiveConfiguration checks if an error is a NoActiveConfiguration error.
func IsNoActiveConfiguration(err error) bool { return isCode(err, ErrCodeNoActiveConfiguration) }

// IsStoreFailure checks if an error is a StoreFailure error.
func IsStoreFailure(err error) bool { return isCode(err, ErrCodeStoreFailure) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
// The outermost AppError in the chain wins.
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
