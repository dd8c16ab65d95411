package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so the transport layer can map them
// to response codes without string matching.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindPayment        ErrorKind = "payment"
	KindAuthentication ErrorKind = "authentication"
	KindTransition     ErrorKind = "invalid_transition"
	KindPersistence    ErrorKind = "persistence"
)

// Error is a kind-tagged domain error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindPersistence for untagged errors,
// which keeps unexpected storage failures from leaking as 4xx responses.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Transitionf(format string, args ...interface{}) error {
	return &Error{Kind: KindTransition, Msg: fmt.Sprintf(format, args...)}
}

// PaymentErr wraps a processor failure; the order is left untouched and the
// caller may retry.
func PaymentErr(msg string, err error) error {
	return &Error{Kind: KindPayment, Msg: msg, Err: err}
}

// AuthenticationErr marks an unverifiable inbound event.
func AuthenticationErr(msg string) error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

// PersistenceErr wraps a storage failure after rollback.
func PersistenceErr(msg string, err error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}
