package apperr

import (
	"errors"
	"fmt"
)

// Error categories shared by services and HTTP handlers. Callers wrap one of
// these with context and test with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrGeneration    = errors.New("reply generation failed")
	ErrAuthorization = errors.New("not authorized")
	ErrPersistence   = errors.New("record store failure")
	ErrNotFound      = errors.New("record not found")
)

// GenerationError 描述一次上游生成失败。
type GenerationError struct {
	// Status is the upstream HTTP status, 0 when no response was received.
	Status int
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := e.Reason
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeneration}
	}
	return []error{ErrGeneration, e.Err}
}

// Generation builds a GenerationError.
func Generation(status int, reason string, err error) error {
	return &GenerationError{Status: status, Reason: reason, Err: err}
}

// Validation wraps a user-facing validation message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Persistence tags err as a record store failure for the named operation.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Authorization wraps a denial reason.
func Authorization(msg string) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, msg)
}
