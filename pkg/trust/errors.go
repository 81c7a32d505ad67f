package trust

import "errors"

var (
	// ErrInvalidManifest is returned when a trust manifest has malformed entries
	ErrInvalidManifest = errors.New("invalid trust manifest")

	// ErrNilVerifier is returned when a caching verifier has nothing to wrap
	ErrNilVerifier = errors.New("verifier is required")
)
