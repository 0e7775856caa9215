package agrivaani

import (
	"errors"
	"fmt"
)

// Error codes used across the API surface.
const (
	ErrCodeValidation    = "validation"
	ErrCodeUpstream      = "upstream"
	ErrCodePersistence   = "persistence"
	ErrCodeConfiguration = "configuration"
)

// Error is a structured error carrying a taxonomy code. Upstream errors from
// weather and geocoding are absorbed inside the location package and never
// reach callers; generation and synthesis errors surface as terminal events.
type Error struct {
	Code    string
	Message string
	Err     error

	// Status is the provider's HTTP status for upstream errors that should
	// propagate it to the client. Zero means not applicable.
	Status int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports rejected input. No side effect has occurred.
func NewValidationError(message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message}
}

// NewUpstreamError reports a failed or malformed external provider call.
func NewUpstreamError(message string, err error) *Error {
	return &Error{Code: ErrCodeUpstream, Message: message, Err: err}
}

// NewUpstreamStatusError reports a non-success provider response whose
// status and body should reach the client.
func NewUpstreamStatusError(status int, message string) *Error {
	return &Error{Code: ErrCodeUpstream, Message: message, Status: status}
}

// NewPersistenceError reports a failed store operation.
func NewPersistenceError(message string, err error) *Error {
	return &Error{Code: ErrCodePersistence, Message: message, Err: err}
}

// NewConfigurationError reports missing or invalid configuration.
func NewConfigurationError(message string) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: message}
}

// ErrorCode extracts the taxonomy code from err, or "" if err is not an
// *Error.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
