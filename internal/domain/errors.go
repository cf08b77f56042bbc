package domain

import "errors"

// Error kinds. Every concrete domain error wraps exactly one of them so
// callers can classify with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized. login first")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrStock        = errors.New("insufficient stock")
)

type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
