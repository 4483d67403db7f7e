package utils

import (
	"errors"
	"fmt"
)

// ValidationError represents a caller-correctable condition, such as a request
// that does not carry enough data. Boundary layers report it as a client error
// rather than an internal fault.
type ValidationError struct {
	Message string
	Err     error
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
//
// Parameters:
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidationError creates a ValidationError that reports message and
// unwraps to cause, so callers can match the cause with errors.Is.
func WrapValidationError(cause error, message string) error {
	return &ValidationError{
		Message: message,
		Err:     cause,
	}
}

// IsValidationError reports whether err or any error it wraps is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
