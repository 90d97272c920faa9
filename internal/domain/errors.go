package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class in the command pipeline.
type ErrorCode string

const (
	ErrParse           ErrorCode = "PARSE_FAILED"
	ErrProvider        ErrorCode = "PROVIDER_FAILED"
	ErrPolicyDenied    ErrorCode = "POLICY_DENIED"
	ErrNoHandler       ErrorCode = "NO_HANDLER"
	ErrParamValidation ErrorCode = "PARAM_VALIDATION"
	ErrHandler         ErrorCode = "HANDLER_EXECUTION"
	ErrStateIO         ErrorCode = "STATE_IO"
)

// Error is the structured error carried across pipeline stages.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches the underlying cause and returns the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf extracts the error code from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
