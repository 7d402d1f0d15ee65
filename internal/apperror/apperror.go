// Package apperror defines the error kinds shared by every service in the
// module. Errors are wrapped with one of these sentinels where they are
// detected and mapped to an HTTP status once, in httputil.
package apperror

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidReference = errors.New("invalid reference")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = errors.New("validation failed")
)

// Issue is a single field-level validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the issue list for a failed request body.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValidationFailed.Error()
	}
	return fmt.Sprintf("%s: %s %s", ErrValidationFailed, e.Issues[0].Field, e.Issues[0].Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Error pairs a kind with the message shown to the client. Error() keeps
// the kind prefix for logs; Message returns the bare text.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message returns the client-facing text of err: the message of the
// innermost *Error in its chain, or err.Error() when there is none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

func InvalidReference(field string) error {
	return &Error{Kind: ErrInvalidReference, Msg: field + " is not a valid id"}
}

func InvalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) error {
	return &ValidationError{Issues: []Issue{{Field: field, Message: message}}}
}

// ParseID parses a path or body id, reporting InvalidReference on failure.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, InvalidReference(field)
	}
	return id, nil
}
