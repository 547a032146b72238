// Package platform is the outbound HTTP layer: the API client for creating
// organizations, base-URL discovery, and catalog fetching.
package platform

import (
	"fmt"
	"strings"
)

// FallbackMessage is shown when the platform fails without a usable
// message of its own.
const FallbackMessage = "Something went wrong, please try again"

type ErrorReason string

const (
	REASON_NOT_RESOLVED      ErrorReason = "NOT_RESOLVED"
	REASON_DISCOVERY_FAILED  ErrorReason = "DISCOVERY_FAILED"
	REASON_REQUEST_FAILED    ErrorReason = "REQUEST_FAILED"
	REASON_DECODE_FAILED     ErrorReason = "DECODE_FAILED"
	REASON_UNEXPECTED_STATUS ErrorReason = "UNEXPECTED_STATUS"
)

// Error is a non-validation platform failure. Message carries the
// server-provided message when one exists; UserMessage falls back to the
// fixed generic text otherwise.
type Error struct {
	Reason     ErrorReason
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the text to surface to the user. Only
// server-provided messages are shown; internal failure descriptions
// fall back to the generic text.
func (e *Error) UserMessage() string {
	if e.Reason == REASON_UNEXPECTED_STATUS && e.Message != "" {
		return e.Message
	}
	return FallbackMessage
}

func newPlatformError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewNotResolvedError() *Error {
	return newPlatformError(REASON_NOT_RESOLVED, "API base URL has not been resolved yet", nil)
}

func NewDiscoveryFailedError(message string, cause error) *Error {
	return newPlatformError(REASON_DISCOVERY_FAILED, message, cause)
}

func NewRequestFailedError(message string, cause error) *Error {
	return newPlatformError(REASON_REQUEST_FAILED, message, cause)
}

func NewDecodeFailedError(message string, cause error) *Error {
	return newPlatformError(REASON_DECODE_FAILED, message, cause)
}

func NewUnexpectedStatusError(statusCode int, message string) *Error {
	e := newPlatformError(REASON_UNEXPECTED_STATUS,
		message, nil)
	e.StatusCode = statusCode
	return e
}

// FieldError is one field/message pair from a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is the platform rejecting a submission with per-field
// messages (HTTP 422).
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		parts[i] = fmt.Sprintf("%s %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldMap returns the errors keyed by field name. Later entries for the
// same field win.
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, fe := range e.Fields {
		m[fe.Field] = fe.Message
	}
	return m
}
