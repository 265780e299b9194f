// Package cache provides a durable read-through cache for expensive source
// lookups. Values are stored in SQLite before being returned, so a repeated
// query never invokes the compute function again.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bymedia/echoboard/pkg/metrics"
)

// Cache stores computed payloads by key.
type Cache interface {
	// GetOrCompute returns the cached value for key. On a miss it invokes
	// compute exactly once, persists the result, and returns it. The
	// boolean reports whether the value came from the cache. A compute
	// error propagates to the caller and nothing is cached.
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error)

	// Invalidate removes the entry for key if present.
	Invalidate(ctx context.Context, key string) error

	// Close releases the underlying database handle.
	Close() error
}

// SQLiteCache implements Cache on a SQLite database file.
type SQLiteCache struct {
	db       *sql.DB
	filename string
	ttl      time.Duration
}

// Open initializes the cache database under dataDir.
func Open(dataDir string, opts ...Option) (*SQLiteCache, error) {
	c := &SQLiteCache{filename: "cache.db"}
	for _, opt := range opts {
		opt(c)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure data dir: %w", ErrOpenCache, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, c.filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenCache, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %w", ErrOpenCache, pragma, execErr)
		}
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS cache_entries (
             key       TEXT PRIMARY KEY,
             value     BLOB NOT NULL,
             stored_at TEXT NOT NULL
         )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create table: %w", ErrOpenCache, err)
	}

	c.db = db
	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// GetOrCompute implements Cache.
func (c *SQLiteCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	value, storedAt, err := c.lookup(ctx, key)
	switch {
	case err == nil:
		if c.ttl == 0 || time.Since(storedAt) < c.ttl {
			metrics.RecordCacheHit()
			return value, true, nil
		}
		// expired; fall through to recompute
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, err
	}

	metrics.RecordCacheMiss()
	computed, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, stored_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at`,
		key, computed, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, false, fmt.Errorf("store cache entry: %w", err)
	}
	return computed, false, nil
}

// Invalidate removes the entry for key.
func (c *SQLiteCache) Invalidate(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

func (c *SQLiteCache) lookup(ctx context.Context, key string) ([]byte, time.Time, error) {
	var (
		value     []byte
		storedRaw string
	)
	row := c.db.QueryRowContext(ctx, `SELECT value, stored_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&value, &storedRaw); err != nil {
		return nil, time.Time{}, err
	}
	storedAt, err := time.Parse(time.RFC3339Nano, storedRaw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse stored_at: %w", err)
	}
	return value, storedAt, nil
}
