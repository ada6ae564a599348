package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnresolvableFragment = errors.New("post fragment has no identifier")
	ErrUnknownField         = errors.New("unknown field")
	ErrInteractiveField     = errors.New("field requires browser interaction")
	ErrNotListField         = errors.New("field is not list-valued")
	ErrOverlayNotFound      = errors.New("reactor overlay not found")
	ErrElementNotFound      = errors.New("element not found")
	ErrVerificationRequired = errors.New("login verification required")
	ErrVerificationTimeout  = errors.New("login verification not completed in time")
	ErrLoginRejected        = errors.New("login form was not accepted")
	ErrInvalidRequest       = errors.New("invalid analyze request")
)

// UnknownFieldError reports a field name outside the supported set.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// SessionError means the browser session itself is unusable. It aborts a run.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session error during %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// PageError aborts extraction of a single page but not the run.
type PageError struct {
	URL string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page error for %s: %v", e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// VerificationError is returned when login hits a step-up challenge.
type VerificationError struct {
	URL      string
	Headless bool
	Err      error
}

func (e *VerificationError) Error() string {
	if e.Headless {
		return fmt.Sprintf("verification challenge at %s cannot be completed in a headless session: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("verification challenge at %s: %v", e.URL, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PipelineError wraps errors raised by an inclusion filter.
type PipelineError struct {
	Stage string
	URN   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %s for %s: %v", e.Stage, e.URN, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	var se *SessionError
	var ve *VerificationError
	return errors.As(err, &se) || errors.As(err, &ve) ||
		errors.Is(err, ErrUnknownField) || errors.Is(err, ErrLoginRejected)
}
