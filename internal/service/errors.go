// Package service provides business logic for the application.
package service

import "errors"

// Kind classifies service failures. Handlers map kinds to status codes.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindCartNotFound
	KindStoreUnavailable
	KindInvalidInput
)

// String returns the stable machine-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindCartNotFound:
		return "cart_not_found"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is a typed service failure with a message safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden        = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrCartNotFound     = &Error{Kind: KindCartNotFound, Message: "Cart not found"}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Message: "Cart store temporarily unavailable"}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)

// NewError builds a service error of kind with message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidInput builds an InvalidInput error with message.
func InvalidInput(message string) *Error {
	return NewError(KindInvalidInput, message)
}

// KindOf extracts the kind of err, or 0 when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
