package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrOpen     = errors.New("open store failed")
	ErrMigrate  = errors.New("apply migrations failed")
)
