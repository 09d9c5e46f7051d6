package arena

import "errors"

// Common errors.
var (
	ErrInvalidSize = errors.New("arena: allocation size must be positive")
	ErrTooLarge    = errors.New("arena: allocation larger than block size")
	ErrExhausted   = errors.New("arena: block limit reached")
	ErrReleased    = errors.New("arena: use after release")
)
