package autodiff

import "errors"

// Common errors.
var (
	// ErrInvalidValue is recorded when an operator receives an absent, stale
	// or foreign Value.
	ErrInvalidValue = errors.New("autodiff: invalid value")
	// ErrDestroyed is recorded when a destroyed tape is asked to build nodes.
	ErrDestroyed = errors.New("autodiff: tape destroyed")
	// ErrTooManyNodes is recorded when the registry cannot be indexed further.
	ErrTooManyNodes = errors.New("autodiff: node registry full")
)
