package inference

import "errors"

var (
	// ErrModelVersion reports a model artifact whose declared schema or
	// tensor shapes do not match what this build supports. Fatal at
	// initialization; the session stays unusable.
	ErrModelVersion = errors.New("model descriptor does not match supported schema")

	// ErrArenaExhausted reports that the scratch arena is smaller than the
	// model's declared working set. Fatal at initialization, never raised
	// during a request.
	ErrArenaExhausted = errors.New("scratch arena too small for model working set")

	// ErrInference reports a failed forward pass. Per-request; the session
	// remains ready afterwards.
	ErrInference = errors.New("inference invocation failed")

	// ErrShapeMismatch reports a caller contract violation between pipeline
	// stages. Indicates a programming error, not a runtime condition.
	ErrShapeMismatch = errors.New("tensor shape mismatch")

	// ErrNotReady reports a Run against a session that never initialized.
	ErrNotReady = errors.New("inference session not initialized")
)
