package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// ErrUnavailable reports that a backing store could not be reached.
var ErrUnavailable = errors.New("dependency unavailable")

// Error is the failure half of an operation result.
// Message is safe to show to callers; Err holds the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Invalid builds a validation failure.
func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}

// NotFound builds a not-found failure.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Internal wraps err as an internal failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Unavailable wraps err as a dependency outage.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// StoreFailure classifies a store error: an outage becomes
// "Database connection failed", anything else an internal failure with msg.
func StoreFailure(msg string, err error) *Error {
	if errors.Is(err, ErrUnavailable) {
		return Unavailable("Database connection failed", err)
	}
	return Internal(msg, err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrUnavailable) {
		return KindUnavailable
	}
	return KindInternal
}
