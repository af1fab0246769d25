package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags every error the core returns to the HTTP boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindIDNotValid
	KindNotFound
	KindTokenNotValid
	KindForbidden
	KindValidation
)

// String returns the wire tag used in error envelopes.
func (k ErrorKind) String() string {
	switch k {
	case KindIDNotValid:
		return "ID_NOT_VALID"
	case KindNotFound:
		return "NOT_FOUND"
	case KindTokenNotValid:
		return "TOKEN_NOT_VALID"
	case KindForbidden:
		return "FORBIDDEN"
	case KindValidation:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is the tagged error shared by every core component.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind: a target with an empty message matches any
// error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrInternal      = &Error{Kind: KindInternal}
	ErrIDNotValid    = &Error{Kind: KindIDNotValid}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrTokenNotValid = &Error{Kind: KindTokenNotValid}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrValidation    = &Error{Kind: KindValidation}
)

func IDNotValid(format string, args ...any) error {
	return &Error{Kind: KindIDNotValid, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// TokenNotValid wraps the concrete reason a token was rejected.
func TokenNotValid(cause error, format string, args ...any) error {
	return &Error{Kind: KindTokenNotValid, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(cause error, format string, args ...any) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf reports the tag of err. Untagged errors are internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal && de.Message != "" {
		return de.Message
	}
	if de != nil && de.Kind != KindInternal {
		return de.Kind.String()
	}
	return "internal server error"
}
