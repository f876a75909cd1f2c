// Package apperror defines the error kinds surfaced by the booking engine and
// their mapping onto HTTP statuses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for callers.
type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindNotFound              Kind = "NotFound"
	KindSlotConflict          Kind = "SlotConflict"
	KindCustomerBlocked       Kind = "CustomerBlocked"
	KindTransactionAborted    Kind = "TransactionAborted"
	KindDependencyUnavailable Kind = "DependencyUnavailable"
)

// Error is a classified application error. Message is safe to show to clients;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrSlotConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrSlotConflict          = &Error{Kind: KindSlotConflict}
	ErrCustomerBlocked       = &Error{Kind: KindCustomerBlocked}
	ErrTransactionAborted    = &Error{Kind: KindTransactionAborted}
	ErrDependencyUnavailable = &Error{Kind: KindDependencyUnavailable}
)

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func SlotConflict(message string, cause error) *Error {
	return &Error{Kind: KindSlotConflict, Message: message, Err: cause}
}

func Blocked() *Error {
	return &Error{Kind: KindCustomerBlocked, Message: "customer is blocked due to missed appointments"}
}

func Aborted(cause error) *Error {
	return &Error{Kind: KindTransactionAborted, Message: "could not complete booking", Err: cause}
}

func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindDependencyUnavailable, Message: message, Err: cause}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps err to the status code a handler should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotConflict:
		return http.StatusConflict
	case KindCustomerBlocked:
		return http.StatusForbidden
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message of err. Unclassified errors
// never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
