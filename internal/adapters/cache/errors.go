package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrOpenCache = errors.New("open cache failed")
	ErrEmptyKey  = errors.New("cache key must not be empty")
)
