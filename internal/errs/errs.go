// Package errs defines the closed error taxonomy every DataStore
// implementation classifies its failures into.
package errs

import (
	"errors"
	"fmt"
)

// Code is one of the closed set of error kinds a DataStore operation can fail
// with. NotFound is deliberately NOT represented here — single-entity lookups
// and updates of absent ids return (nil, nil) instead of an error.
type Code string

const (
	NotInitialized   Code = "NOT_INITIALIZED"
	Network          Code = "NETWORK"
	Auth             Code = "AUTH"
	Validation       Code = "VALIDATION"
	AlreadyExists    Code = "ALREADY_EXISTS"
	Conflict         Code = "CONFLICT"
	RateLimited      Code = "RATE_LIMITED"
	Backend          Code = "BACKEND"
	StorageCorruption Code = "STORAGE_CORRUPTION"
)

// Error is the typed, stable-coded error every store returns on failure.
type Error struct {
	Code    Code
	Message string
	// Backup carries the current server-side state for CONFLICT errors so the
	// caller can reconcile.
	Backup any
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a typed Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a typed Error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithBackup attaches a backup payload (used for CONFLICT) and returns the
// same *Error for chaining.
func (e *Error) WithBackup(backup any) *Error {
	e.Backup = backup
	return e
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsTransient reports whether an error class should be retried by the sync
// engine: NETWORK, RATE_LIMITED, and unclassified BACKEND errors are
// transient; everything else is terminal for the purposes of retry.
func IsTransient(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		// Unclassified Go errors (e.g. context deadline) are treated as
		// transient network-class failures by the executor.
		return true
	}
	switch e.Code {
	case Network, RateLimited, Backend:
		return true
	default:
		return false
	}
}
