package helper

import (
	"errors"
	"fmt"
)

// Error kinds. Collaborators use these to distinguish "fix the request"
// failures from retryable ones and from pipeline bugs.
var (
	// ErrConfiguration marks missing or unparseable configuration, e.g. a
	// template file that cannot be found. Fatal, not retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidInput marks degenerate or missing caller input, e.g. a
	// relation without included attributes. Fatal, caller must fix the
	// request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariant marks a pipeline bug, e.g. an attribute pair missing from
	// the result skeleton. Fatal, aborts the request.
	ErrInvariant = errors.New("invariant violation")
)

// Error wraps an error with the operation context it occurred in.
type Error struct {
	Context string
	Err     error
}

// NewError creates a contextualized error.
func NewError(context string, err error) *Error {
	return &Error{Context: context, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
