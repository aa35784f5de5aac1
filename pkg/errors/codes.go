// Package errors provides error codes for chatpush
package errors

// ErrorCode represents a chatpush error code
type ErrorCode string

// Configuration Error Codes
const (
	// ErrInvalidConfig indicates a loaded or submitted configuration
	// document failed schema validation.
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"

	// ErrUnknownSetting indicates a configuration mutation named a field
	// not declared by the target provider's schema.
	ErrUnknownSetting ErrorCode = "UNKNOWN_SETTING"

	// ErrUnknownProvider indicates the named provider is not registered.
	ErrUnknownProvider ErrorCode = "UNKNOWN_PROVIDER"

	// ErrPersistenceFailure indicates the config store could not save.
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
)

// Provider Error Codes
const (
	// ErrNotConfigured indicates send was invoked while the notifier is
	// in metadata mode.
	ErrNotConfigured ErrorCode = "NOT_CONFIGURED"

	// ErrTransportError indicates a network or HTTP failure during send.
	ErrTransportError ErrorCode = "TRANSPORT_ERROR"
)
