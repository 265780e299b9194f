package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithFilename overrides the database file name inside the data directory.
func WithFilename(name string) Option {
	return func(s *SQLiteStore) {
		if name != "" {
			s.filename = name
		}
	}
}

// WithBusyTimeout sets the SQLite busy_timeout pragma.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
