// Package apperr defines the error kinds returned by board operations and
// the HTTP status each kind maps to.
//
// Operations return *Error values built with the constructors below;
// anything else is treated as an internal error.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

// Error carries a user-facing message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string) error { return &Error{Kind: k, Message: msg} }

// Validation reports a missing or malformed input.
func Validation(msg string) error { return newErr(KindValidation, msg) }

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) error { return newErr(KindUnauthorized, msg) }

// Forbidden reports an authenticated caller without permission.
func Forbidden(msg string) error { return newErr(KindForbidden, msg) }

// NotFound reports an id that does not resolve, or a board the caller
// cannot see.
func NotFound(msg string) error { return newErr(KindNotFound, msg) }

// Conflict reports a state clash such as a duplicate member.
func Conflict(msg string) error { return newErr(KindConflict, msg) }

// RateLimited reports a caller that exceeded an attempt budget.
func RateLimited(msg string) error { return newErr(KindRateLimited, msg) }

// Internal wraps an unexpected failure such as a storage error.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
