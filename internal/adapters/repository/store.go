// Package repository persists episodes, score records and leaderboard
// snapshots in SQLite. The score table is append-only; episodes are
// upserted by resolved identity.
package repository

import (
	"context"
	"time"

	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/model"
)

// Store provides durable access to the raw material of the leaderboard.
type Store interface {
	// UpsertEpisode inserts an episode or replaces the stored row with the
	// same identity.
	UpsertEpisode(ctx context.Context, ep model.Episode) error

	// ListEpisodes returns all stored episodes ordered by publish time desc.
	ListEpisodes(ctx context.Context) ([]model.Episode, error)

	// GetEpisode returns the episode with the given identity.
	// Returns ErrNotFound when the identity is unknown.
	GetEpisode(ctx context.Context, identity string) (model.Episode, error)

	// ListUnscoredEpisodes returns episodes with no score record yet,
	// most recently published first. Drives scoring retries: an episode
	// whose scoring failed on a previous cycle stays in this set.
	ListUnscoredEpisodes(ctx context.Context) ([]model.Episode, error)

	// AppendScore appends a score record. Records are never updated in
	// place; the latest CreatedAt per (identity, metric) wins downstream.
	AppendScore(ctx context.Context, rec model.ScoreRecord) error

	// ListScores returns all score records in insertion order.
	ListScores(ctx context.Context) ([]model.ScoreRecord, error)

	// ListScoresSince returns score records created at or after the cutoff.
	ListScoresSince(ctx context.Context, cutoff time.Time) ([]model.ScoreRecord, error)

	// SaveSnapshot replaces the stored snapshot wholesale.
	SaveSnapshot(ctx context.Context, snap board.Snapshot) error

	// LatestSnapshot returns the most recently saved snapshot.
	// Returns ErrNotFound when no snapshot has been saved yet.
	LatestSnapshot(ctx context.Context) (board.Snapshot, error)

	// CountEpisodes and CountScores report table sizes for /stats.
	CountEpisodes(ctx context.Context) (int, error)
	CountScores(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
