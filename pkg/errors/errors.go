package errors

import (
	"errors"
	"fmt"
)

// Common errors. The first three mirror the failure taxonomy of the post
// workflows: validation failures are caught before any network call,
// verification failures block submission until the token is renewed, and
// transport failures cover both rejected calls and success:false envelopes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrVerification = errors.New("verification required")
	ErrTransport    = errors.New("transport error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation builds a validation error with a user-facing message.
func Validation(message string) error {
	return &Error{Message: message, Err: ErrValidation}
}

// Verification builds a verification error with a user-facing message.
func Verification(message string) error {
	return &Error{Message: message, Err: ErrVerification}
}

// Transport wraps a failed call or a success:false envelope message.
func Transport(err error, message string) error {
	if err == nil {
		err = ErrTransport
	} else {
		err = fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return &Error{Message: message, Err: err}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsValidation returns true if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsVerification returns true if the error is a verification error
func IsVerification(err error) bool {
	return errors.Is(err, ErrVerification)
}

// IsTransport returns true if the error is a transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden returns true if the error is a forbidden error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
