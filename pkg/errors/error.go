// Package errors provides structured error types for chatpush
package errors

import (
	"fmt"
	"strings"
)

// DispatchError represents a chatpush error with structured information.
// Every error in the dispatch pipeline is reportable as a short
// human-readable string via Error().
type DispatchError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
	Field    string    `json:"field,omitempty"`

	// Cause holds the original error, not serialized.
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (provider: %s)", e.Code, e.Message, e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error by code
func (e *DispatchError) Is(target error) bool {
	if targetErr, ok := target.(*DispatchError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// WithCause attaches a cause error
func (e *DispatchError) WithCause(cause error) *DispatchError {
	e.Cause = cause
	return e
}

// New creates a new DispatchError with the given code and message
func New(code ErrorCode, message string) *DispatchError {
	return &DispatchError{Code: code, Message: message}
}

// NewNotConfigured creates an error for a send attempt in metadata mode
func NewNotConfigured(provider string) *DispatchError {
	return &DispatchError{
		Code:     ErrNotConfigured,
		Message:  "provider is not configured",
		Provider: provider,
	}
}

// NewTransportError creates an error for a failed provider send
func NewTransportError(provider string, cause error) *DispatchError {
	return &DispatchError{
		Code:     ErrTransportError,
		Message:  cause.Error(),
		Provider: provider,
		Cause:    cause,
	}
}

// NewUnknownSetting creates an error for an unrecognized field name.
// The message lists the provider's valid field names.
func NewUnknownSetting(provider, field string, valid []string) *DispatchError {
	return &DispatchError{
		Code:     ErrUnknownSetting,
		Message:  fmt.Sprintf("unknown setting %q, valid settings: %s", field, strings.Join(valid, ", ")),
		Provider: provider,
		Field:    field,
	}
}

// NewUnknownProvider creates an error for an unregistered provider name
func NewUnknownProvider(provider string) *DispatchError {
	return &DispatchError{
		Code:     ErrUnknownProvider,
		Message:  "provider is not registered",
		Provider: provider,
	}
}

// NewPersistenceFailure creates an error for a failed config save
func NewPersistenceFailure(identity string) *DispatchError {
	return &DispatchError{
		Code:    ErrPersistenceFailure,
		Message: fmt.Sprintf("failed to save configuration for %s", identity),
	}
}

// IsCode reports whether err is a DispatchError carrying the given code
func IsCode(err error, code ErrorCode) bool {
	de, ok := err.(*DispatchError)
	return ok && de.Code == code
}
