package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the error kind for malformed inputs to the matching core:
// missing coordinates, empty segment sets, degenerate geometry, bad prefixes.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which operation rejected its input and why.
// errors.Is(err, ErrInvalidInput) holds for every InputError.
type InputError struct {
	Op  string
	Msg string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrInvalidInput, e.Msg)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// NewInputError builds an InputError with a formatted message.
func NewInputError(op, format string, args ...any) error {
	return &InputError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
