// Package apperr defines the error taxonomy shared by the repositories and
// their callers.
//
// Every repository failure is one of four kinds:
//
//   - ErrUnauthenticated: no session user is available to scope the call.
//   - *ValidationError: a required field is missing or a value is out of range.
//   - *NotFoundError: an id does not resolve to a row the caller owns.
//   - *RemoteError: the store failed; wraps the underlying cause.
//
// Match kinds with errors.Is against the sentinels (ErrValidation, ErrNotFound,
// ErrRemote) or use KindOf.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrRemote          = errors.New("remote store error")
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is required"
	}
	return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Required builds a ValidationError for an empty required field.
func Required(entity, field string) error {
	return &ValidationError{Entity: entity, Field: field}
}

// Invalid builds a ValidationError for a field with an unacceptable value.
func Invalid(entity, field string, value any) error {
	return &ValidationError{Entity: entity, Field: field, Reason: fmt.Sprintf("has invalid value %q", fmt.Sprint(value))}
}

// NotFoundError reports an id that does not resolve for the caller.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// RemoteError wraps a storage or transport failure.
type RemoteError struct {
	Entity string
	Op     string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// Remote wraps err as a RemoteError. A nil err returns nil.
func Remote(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Entity: entity, Op: op, Err: err}
}

type Kind int

const (
	KindNone Kind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindRemote
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRemote:
		return "remote"
	}
	return "unknown"
}

// KindOf classifies err. Nil errors are KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRemote):
		return KindRemote
	}
	return KindUnknown
}
