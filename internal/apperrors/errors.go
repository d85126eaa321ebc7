package apperrors

import (
	"errors"
	"fmt"
)

// Kind tags an error with the portal's failure taxonomy.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
)

// ErrUnauthenticated is returned when an operation needs a logged-in actor and there is none.
var ErrUnauthenticated = errors.New("authentication required")

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// ValidationFields builds a validation error carrying per-field messages.
func ValidationFields(message string, fields ...FieldError) error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Forbidden(format string, args ...interface{}) error {
	return newError(KindAuthorization, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, format, args...)
}

// Wrap tags cause with kind while keeping it reachable through errors.Is / errors.As.
func Wrap(kind Kind, cause error, format string, args ...interface{}) error {
	e := newError(kind, format, args...)
	e.Err = cause
	return e
}

// KindOf reports the taxonomy tag of err, if any error in its chain carries one.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
