package domain

import "errors"

// Error kinds. Every error returned by this package and by the use cases
// wraps exactly one of them, so callers branch with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrState         = errors.New("state error")
	ErrAuthorization = errors.New("authorization error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
)

// Error carries a human readable message and its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func validationf(msg string) error { return NewError(ErrValidation, msg) }
func statef(msg string) error      { return NewError(ErrState, msg) }
