// Package errs defines the error kinds surfaced by an editing session.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrService      = errors.New("service error")
	ErrImport       = errors.New("import error")
	ErrPrecondition = errors.New("precondition error")

	// ErrStale marks an async completion that arrived after a newer request
	// or after the session was closed. It is never shown to the user.
	ErrStale = errors.New("stale result")
)

// Error carries the kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation reports bad input, such as an empty prompt or a missing selection.
func Validation(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: msg}
}

// Service reports a failure of a remote collaborator.
func Service(op string, err error) error {
	return &Error{Kind: ErrService, Op: op, Err: err}
}

// Import reports a file or payload that is not a decodable image.
func Import(op string, err error) error {
	return &Error{Kind: ErrImport, Op: op, Err: err}
}

// Precondition reports an action attempted before its prerequisites exist.
func Precondition(op, msg string) error {
	return &Error{Kind: ErrPrecondition, Op: op, Msg: msg}
}

// KindOf returns the kind of err, or nil when it carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrService, ErrImport, ErrPrecondition, ErrStale} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
