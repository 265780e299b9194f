package feeds

import "errors"

// Sentinel kinds for source errors.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMissingCredential = errors.New("missing source credential")
)
