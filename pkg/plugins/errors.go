package plugins

import "errors"

var (
	// ErrInvalidConfiguration is returned when a discoverer is built without a verifier
	ErrInvalidConfiguration = errors.New("invalid plugin discovery configuration")

	// ErrCancelled is returned when the caller's context ends before discovery completes
	ErrCancelled = errors.New("plugin discovery cancelled")

	// ErrDisposed is returned when discovery is requested after Close and nothing is cached
	ErrDisposed = errors.New("plugin discoverer closed")

	// ErrCandidateResolution is returned when a convention source fails for a reason other than cancellation
	ErrCandidateResolution = errors.New("failed to resolve plugin candidates")
)
