package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Error is a business error with a message meant for the caller.
// errors.Is(err, ErrNotFound) and friends match on Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func badRequest(format string, args ...interface{}) error {
	return newError(ErrBadRequest, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

// lookupError turns a missing row into NotFound(msg) and wraps anything else.
func lookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("%s", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
