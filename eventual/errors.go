package eventual

import "errors"

var (
	// ErrMisuse marks a programmer-misuse condition: reusing a single-shot
	// node, or otherwise violating a construction-time invariant.
	ErrMisuse = errors.New("eventual: misuse")

	// ErrStreamEmpty is returned by Head when the upstream stream ends
	// without ever emitting a value.
	ErrStreamEmpty = errors.New("eventual: stream ended without a value")
)
