package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
