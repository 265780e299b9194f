package cache

import "time"

// Option applies a configuration option to the SQLiteCache.
type Option func(*SQLiteCache)

// WithTTL expires entries older than d; zero keeps entries forever.
func WithTTL(d time.Duration) Option {
	return func(c *SQLiteCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithFilename overrides the database file name inside the data directory.
func WithFilename(name string) Option {
	return func(c *SQLiteCache) {
		if name != "" {
			c.filename = name
		}
	}
}
