package apperror

import (
	"errors"
	"fmt"
)

// Kind groups errors by how the caller is expected to react to them.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindInvalidToken    Kind = "invalid_token"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInvalidColumn   Kind = "invalid_column"
	KindInternal        Kind = "internal"
)

// Error is the typed error returned by stores, services and the access gate.
// Message is safe to show to clients; Cause is for logs only.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

func NotFound(resource string) *Error {
	return New(KindNotFound, resource+"_not_found", resource+" not found")
}

func Conflict(code, msg string) *Error {
	return New(KindConflict, code, msg)
}

func Validation(code, msg string) *Error {
	return New(KindValidation, code, msg)
}

func InvalidColumn(column, entity string) *Error {
	return New(KindInvalidColumn, "invalid_column",
		fmt.Sprintf("column '%s' does not belong to entity '%s'", column, entity))
}

func InvalidToken(cause error) *Error {
	return Wrap(KindInvalidToken, "invalid_token", "could not validate credentials", cause)
}

func Unauthenticated() *Error {
	return New(KindUnauthenticated, "not_authenticated", "not authenticated")
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, "forbidden", msg)
}

func InsufficientPrivileges() *Error {
	return New(KindForbidden, "insufficient_privileges", "the user does not have enough privileges")
}

func Internal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal server error", cause)
}
