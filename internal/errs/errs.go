// Package errs defines the error taxonomy from spec.md §7 as a small set
// of typed values, generalizing the teacher's source.AuthError pattern
// (a struct implementing error, matched with errors.As) to every kind the
// core can raise.
package errs

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind is one of the error categories the core distinguishes. Callers
// switch on Kind rather than on concrete types.
type Kind string

const (
	Transport    Kind = "transport"
	Auth         Kind = "auth"
	Protocol     Kind = "protocol"
	LoggedOut    Kind = "logged_out"
	Validation   Kind = "validation"
	NotFound     Kind = "not_found"
	Transient    Kind = "transient"
)

// Error is the single error type the core returns; Kind tells the caller
// which taxonomy bucket it falls in.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "imapsession.Select"
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind, wrapping cause (if any) with
// eris so a stack trace survives into logs without leaking into Error().
func New(kind Kind, op, message string, cause error) *Error {
	var wrapped error
	if cause != nil {
		wrapped = eris.Wrap(cause, message)
	}
	return &Error{Kind: kind, Op: op, Message: message, cause: wrapped}
}

// Is reports whether err (or any error in its chain) is an *Error of the
// given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
