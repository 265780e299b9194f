package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/metrics"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	filename    string
	busyTimeout time.Duration
}

// Open initializes or connects to the database under dataDir and applies
// migrations.
func Open(dataDir string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		filename:    "echoboard.db",
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure data dir: %w", ErrOpen, err)
	}

	s.path = filepath.Join(dataDir, s.filename)
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %w", ErrOpen, pragma, execErr)
		}
	}

	s.db = db
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) error {
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "exec")
	}
	return err
}

// UpsertEpisode inserts or replaces the episode row keyed by identity.
func (s *SQLiteStore) UpsertEpisode(ctx context.Context, ep model.Episode) error {
	return s.execWithRetry(ctx,
		`INSERT INTO episodes (identity, title, published, link, duration, summary, source)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(identity) DO UPDATE SET
             title = excluded.title,
             published = excluded.published,
             link = excluded.link,
             duration = excluded.duration,
             summary = excluded.summary,
             source = excluded.source`,
		ep.Identity,
		ep.Title,
		formatTime(ep.Published),
		ep.Link,
		ep.Duration,
		ep.Summary,
		ep.Source,
	)
}

// ListEpisodes returns all episodes, most recently published first.
func (s *SQLiteStore) ListEpisodes(ctx context.Context) ([]model.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, title, published, link, duration, summary, source
         FROM episodes ORDER BY published DESC, identity ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Episode
	for rows.Next() {
		ep, scanErr := scanEpisode(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ListUnscoredEpisodes returns episodes without any score record, most
// recently published first.
func (s *SQLiteStore) ListUnscoredEpisodes(ctx context.Context) ([]model.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.identity, e.title, e.published, e.link, e.duration, e.summary, e.source
         FROM episodes e
         WHERE NOT EXISTS (SELECT 1 FROM scores sc WHERE sc.identity = e.identity)
         ORDER BY e.published DESC, e.identity ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Episode
	for rows.Next() {
		ep, scanErr := scanEpisode(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// GetEpisode returns the episode with the given identity.
func (s *SQLiteStore) GetEpisode(ctx context.Context, identity string) (model.Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT identity, title, published, link, duration, summary, source
         FROM episodes WHERE identity = ?`, identity)

	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Episode{}, ErrNotFound
	}
	return ep, err
}

// AppendScore appends one score record.
func (s *SQLiteStore) AppendScore(ctx context.Context, rec model.ScoreRecord) error {
	err := s.execWithRetry(ctx,
		`INSERT INTO scores (identity, metric, raw, present, improvement, has_improvement,
                             guest, show, comment, release_date, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Identity,
		string(rec.Metric),
		rec.Raw,
		boolToInt(rec.Present),
		rec.Improvement,
		boolToInt(rec.HasImprovement),
		rec.Guest,
		rec.Show,
		rec.Comment,
		formatTime(rec.Release),
		formatTime(rec.CreatedAt),
	)
	if err == nil {
		metrics.RecordScoreWritten()
	}
	return err
}

// ListScores returns all score records in insertion order.
func (s *SQLiteStore) ListScores(ctx context.Context) ([]model.ScoreRecord, error) {
	return s.queryScores(ctx,
		`SELECT identity, metric, raw, present, improvement, has_improvement,
                guest, show, comment, release_date, created_at
         FROM scores ORDER BY id ASC`)
}

// ListScoresSince returns score records created at or after cutoff.
func (s *SQLiteStore) ListScoresSince(ctx context.Context, cutoff time.Time) ([]model.ScoreRecord, error) {
	return s.queryScores(ctx,
		`SELECT identity, metric, raw, present, improvement, has_improvement,
                guest, show, comment, release_date, created_at
         FROM scores WHERE created_at >= ? ORDER BY id ASC`,
		formatTime(cutoff))
}

func (s *SQLiteStore) queryScores(ctx context.Context, query string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ScoreRecord
	for rows.Next() {
		var (
			rec                   model.ScoreRecord
			metric                string
			present, hasImprove   int
			releaseRaw, createdAt string
		)
		if err := rows.Scan(&rec.Identity, &metric, &rec.Raw, &present, &rec.Improvement,
			&hasImprove, &rec.Guest, &rec.Show, &rec.Comment, &releaseRaw, &createdAt); err != nil {
			return nil, err
		}
		rec.Metric = model.Metric(metric)
		rec.Present = present != 0
		rec.HasImprovement = hasImprove != 0
		rec.Release = parseTime(releaseRaw)
		rec.CreatedAt = parseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSnapshot replaces the stored snapshot wholesale.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap board.Snapshot) error {
	entriesJSON, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}

	return retryOnBusy(ctx, func() error {
		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return txErr
		}
		defer func() { _ = tx.Rollback() }()

		if _, execErr := tx.ExecContext(ctx, `DELETE FROM snapshots`); execErr != nil {
			return execErr
		}
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO snapshots (run_id, computed_at, entries_json) VALUES (?, ?, ?)`,
			snap.RunID, formatTime(snap.ComputedAt), string(entriesJSON)); execErr != nil {
			return execErr
		}
		return tx.Commit()
	})
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (board.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, computed_at, entries_json FROM snapshots ORDER BY id DESC LIMIT 1`)

	var (
		snap        board.Snapshot
		computedAt  string
		entriesJSON string
	)
	if err := row.Scan(&snap.RunID, &computedAt, &entriesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return board.Snapshot{}, ErrNotFound
		}
		return board.Snapshot{}, err
	}
	snap.ComputedAt = parseTime(computedAt)
	if err := json.Unmarshal([]byte(entriesJSON), &snap.Entries); err != nil {
		return board.Snapshot{}, fmt.Errorf("unmarshal entries: %w", err)
	}
	return snap, nil
}

// CountEpisodes returns the number of stored episodes.
func (s *SQLiteStore) CountEpisodes(ctx context.Context) (int, error) {
	return s.countRows(ctx, "episodes")
}

// CountScores returns the number of stored score records.
func (s *SQLiteStore) CountScores(ctx context.Context) (int, error) {
	return s.countRows(ctx, "scores")
}

func (s *SQLiteStore) countRows(ctx context.Context, table string) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (model.Episode, error) {
	var (
		ep        model.Episode
		published string
	)
	if err := row.Scan(&ep.Identity, &ep.Title, &published, &ep.Link,
		&ep.Duration, &ep.Summary, &ep.Source); err != nil {
		return model.Episode{}, err
	}
	ep.Published = parseTime(published)
	return ep, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
