package engine

import "errors"

// Failure taxonomy. Apart from ErrInvalidRequest, none of these ever reaches
// the caller as a failure: every runtime error maps to a degraded-but-valid
// (possibly empty) response and an audit record.
var (
	// ErrInvalidRequest is the only rejection: the input shape to the public
	// entry point is structurally wrong.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout marks the deadline being exceeded somewhere in the pipeline.
	ErrTimeout = errors.New("deadline exceeded")

	// ErrGenerationUnavailable marks a generation capability failure; treated
	// as zero candidates.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrContextUnavailable marks a missing file context; the pipeline falls
	// back to a generic empty context.
	ErrContextUnavailable = errors.New("context unavailable")
)
