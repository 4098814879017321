// Package apperr defines the classified errors shared by services and the
// HTTP layer. Callers match them with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and caller retry policy.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalid
	KindStorage
)

// Error carries a kind and a human-readable message. The wrapped cause, if
// any, is reachable through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes sentinel matching work: two *Error values match when they share
// kind and message, so wrapped sentinels survive fmt.Errorf("%w").
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }
func Invalid(msg string) *Error  { return &Error{Kind: KindInvalid, Message: msg} }

// Storage wraps an underlying database failure. Treated as retryable by the
// caller; never retried here.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// Lifecycle conflicts surfaced by the borrowing state machine.
var (
	ErrOutOfStock            = Conflict("book is not available for borrowing")
	ErrDuplicateActiveLoan   = Conflict("borrower already has this book borrowed")
	ErrAlreadyReturned       = Conflict("book has already been returned")
	ErrBorrowerHasActiveLoan = Conflict("cannot delete borrower with active borrowings")
	ErrBookHasActiveLoan     = Conflict("cannot delete book with active borrowings")
)

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps a classified error to a response status code.
// Unclassified errors are treated as storage failures.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible message for err. Unclassified errors get
// a generic message so internals do not leak into responses.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
