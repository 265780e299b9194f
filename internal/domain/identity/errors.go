package identity

import "errors"

// Sentinel kinds for identity resolution errors.
var (
	ErrMissingIdentity = errors.New("record has no native id or canonical link")
)
