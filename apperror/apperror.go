package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

// Error is the error type shared by the sync core, the REST client and the
// reference server. Op names the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

func Network(op string, err error) *Error {
	return Wrap(KindNetwork, op, err)
}

func Conflict(op, message string) *Error {
	return New(KindConflict, op, message)
}

func Auth(op, message string) *Error {
	return New(KindAuth, op, message)
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Internal(op string, err error) *Error {
	return Wrap(KindInternal, op, err)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNetwork(err error) bool    { return is(err, KindNetwork) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsAuth(err error) bool       { return is(err, KindAuth) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
