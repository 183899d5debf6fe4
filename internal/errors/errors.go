package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Core-API authentication
	ErrCodeAuthFailure ErrorCode = "AUTH_FAILURE"

	// Core-API calls
	ErrCodeBackendRejected ErrorCode = "BACKEND_REJECTED"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"

	// Validation
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Messaging platform
	ErrCodePlatform           ErrorCode = "PLATFORM_ERROR"
	ErrCodeProvisioningFailed ErrorCode = "PROVISIONING_FAILED"

	// Session lifecycle
	ErrCodeOrphanedChannels ErrorCode = "ORPHANED_CHANNELS"
	ErrCodeRoutingNotFound  ErrorCode = "ROUTING_NOT_FOUND"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError is a structured error carried across layer boundaries
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func AuthFailure(cause error) *AppError {
	return Wrap(ErrCodeAuthFailure, "Service account authentication failed", cause)
}

func BackendRejected(operation string, status int) *AppError {
	return New(ErrCodeBackendRejected, fmt.Sprintf("Core API rejected %s with status %d", operation, status)).
		WithDetails(map[string]any{"operation": operation, "status": status})
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func Platform(operation string, cause error) *AppError {
	return Wrap(ErrCodePlatform, fmt.Sprintf("Platform call %s failed", operation), cause)
}

func ProvisioningFailed(step string, cause error) *AppError {
	return Wrap(ErrCodeProvisioningFailed, fmt.Sprintf("Channel provisioning failed at step %s", step), cause).
		WithDetails(map[string]string{"step": step})
}

func OrphanedChannels(cause error) *AppError {
	return Wrap(ErrCodeOrphanedChannels, "Channel pair registration failed after provisioning; channels are unroutable", cause)
}

func RoutingNotFound(channelID int64) *AppError {
	return New(ErrCodeRoutingNotFound, fmt.Sprintf("No routing record for channel %d", channelID))
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
