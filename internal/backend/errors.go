package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a backend call failure
type ErrorType string

const (
	// ErrTypeNetwork indicates the request never produced a response
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeStatus indicates a non-2xx response without a usable error body
	ErrTypeStatus ErrorType = "status"

	// ErrTypeServer indicates a non-2xx response carrying an error message
	ErrTypeServer ErrorType = "server"

	// ErrTypeDecode indicates a 2xx response whose body could not be decoded
	ErrTypeDecode ErrorType = "decode"

	// ErrTypeCancelled indicates the caller cancelled the request or its deadline passed
	ErrTypeCancelled ErrorType = "cancelled"

	// ErrTypeInternal indicates the request could not be built
	ErrTypeInternal ErrorType = "internal"
)

// User-facing messages
const (
	MsgAnalyzeUnavailable = "Failed to analyze file. Make sure the backend is running."
	MsgCompareUnavailable = "Failed to compare columns. Make sure the backend is running."
	MsgHealthUnavailable  = "Failed to reach the backend. Make sure it is running."
	MsgInvalidResponse    = "Invalid response from server"
	MsgRequestCancelled   = "Request cancelled"
)

// Error represents a failed backend call
type Error struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message is safe to show to the user as-is
	Message string `json:"message"`

	// Endpoint is the request path, e.g. /analyze
	Endpoint string `json:"endpoint,omitempty"`

	// StatusCode for HTTP-related errors
	StatusCode int `json:"status_code,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Type)}
	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", e.Endpoint))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Type
func (e *Error) Is(target error) bool {
	if be, ok := target.(*Error); ok {
		return e.Type == be.Type
	}
	return false
}

// NewError creates a backend error
func NewError(errType ErrorType, endpoint, message string) *Error {
	return &Error{Type: errType, Endpoint: endpoint, Message: message}
}

// NewErrorWithCause creates a backend error with an underlying cause
func NewErrorWithCause(errType ErrorType, endpoint, message string, cause error) *Error {
	return &Error{Type: errType, Endpoint: endpoint, Message: message, Cause: cause}
}

// NewStatusError creates the error for a non-2xx response without a usable body
func NewStatusError(endpoint string, status int) *Error {
	return &Error{
		Type:       ErrTypeStatus,
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    fmt.Sprintf("Server error: %d", status),
	}
}

// AsError extracts a *Error from an error chain
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsType reports whether err is a backend error of the given type
func IsType(err error, errType ErrorType) bool {
	be, ok := AsError(err)
	return ok && be.Type == errType
}

// UserMessage returns the text shown in the error banner
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := AsError(err); ok {
		return be.Message
	}
	return err.Error()
}
