// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/ai"
	"github.com/bymedia/echoboard/internal/adapters/cache"
	"github.com/bymedia/echoboard/internal/adapters/feeds"
	"github.com/bymedia/echoboard/internal/adapters/feeds/rss"
	"github.com/bymedia/echoboard/internal/adapters/feeds/spotify"
	"github.com/bymedia/echoboard/internal/adapters/feeds/youtube"
	"github.com/bymedia/echoboard/internal/adapters/http/api"
	jobqueue "github.com/bymedia/echoboard/internal/adapters/mq/queue"
	workerpool "github.com/bymedia/echoboard/internal/adapters/mq/worker"
	"github.com/bymedia/echoboard/internal/adapters/repository"
	"github.com/bymedia/echoboard/internal/config"
	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/dedupe"
	"github.com/bymedia/echoboard/internal/domain/identity"
	"github.com/bymedia/echoboard/internal/domain/merge"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/internal/domain/rank"
	"github.com/bymedia/echoboard/internal/export"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
	"github.com/bymedia/echoboard/pkg/retry"
)

// File names written under the configured data directory.
const (
	ledgerFilename        = "seen_episodes.txt"
	leaderboardFilename   = "leaderboard.csv"
	weeklySummaryFilename = "weekly_summary.csv"
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store      repository.Store
	cache      cache.Cache
	ledger     dedupe.Ledger
	aggregator *board.Aggregator

	// Content sources; spotify and youtube stay nil without credentials.
	sources []feeds.Source
	spotify *spotify.Client
	youtube *youtube.Client

	// Scoring backend; nil without an OpenAI key.
	scorer workerpool.Scorer

	// pollMu serializes polling cycles.
	pollMu sync.Mutex

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStore overrides the persistent store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache overrides the content cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLedger overrides the dedup ledger.
func WithLedger(l dedupe.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithSources overrides the polled content sources.
func WithSources(sources ...feeds.Source) Option {
	return func(s *Service) {
		s.sources = sources
	}
}

// WithScorer overrides the episode scoring backend.
func WithScorer(scorer workerpool.Scorer) Option {
	return func(s *Service) {
		s.scorer = scorer
	}
}

// New constructs a new Service around the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens persistent state and builds the configured sources. It is a
// no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting leaderboard service")

	if s.store == nil {
		store, err := repository.Open(s.cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}
	if s.cache == nil {
		c, err := cache.Open(s.cfg.DataDir,
			cache.WithTTL(time.Duration(s.cfg.CacheTTLSeconds)*time.Second),
		)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		s.cache = c
	}
	if s.ledger == nil {
		ledger, err := dedupe.Open(filepath.Join(s.cfg.DataDir, ledgerFilename))
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		s.ledger = ledger
	}

	s.aggregator = board.New(
		board.WithWeights(metricWeights(s.cfg.MetricWeights)),
		board.WithRanker(rank.New(
			rank.WithTopThreshold(s.cfg.TopPerformerThreshold),
			rank.WithImprovedThreshold(s.cfg.ImprovementThreshold),
		)),
	)

	if err := s.buildSources(ctx); err != nil {
		return err
	}
	if err := s.buildScorer(ctx); err != nil {
		return err
	}

	// Restore the last-good board so reads work before the first poll.
	snap, err := s.store.LatestSnapshot(ctx)
	switch {
	case err == nil:
		s.aggregator.Replace(snap)
		s.logger.Info(ctx, "restored snapshot",
			logger.String("runID", snap.RunID),
			logger.Int("entries", len(snap.Entries)),
		)
	case errors.Is(err, repository.ErrNotFound):
		// First run; the board stays empty until a poll completes.
	default:
		return fmt.Errorf("restore snapshot: %w", err)
	}

	metrics.UpdateLedgerSize(s.ledger.Size())

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("sources", len(s.sources)),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.QueueSize),
	)
	return nil
}

func (s *Service) buildSources(ctx context.Context) error {
	if s.sources != nil {
		return nil
	}
	if s.cfg.FeedURL != "" {
		src, err := rss.New(s.cfg.FeedURL)
		if err != nil {
			return fmt.Errorf("build rss source: %w", err)
		}
		s.sources = append(s.sources, src)
	}
	if s.cfg.SpotifyClientID != "" && s.cfg.SpotifyClientSecret != "" {
		client, err := spotify.New(s.cfg.SpotifyClientID, s.cfg.SpotifyClientSecret,
			spotify.WithPageSize(s.cfg.SpotifyPageSize),
			spotify.WithMaxResults(s.cfg.SpotifyMaxResults),
			spotify.WithRetryPolicy(s.retryPolicy()),
		)
		if err != nil {
			return fmt.Errorf("build spotify client: %w", err)
		}
		s.spotify = client
	}
	if s.cfg.YouTubeAPIKey != "" {
		client, err := youtube.New(s.cfg.YouTubeAPIKey)
		if err != nil {
			return fmt.Errorf("build youtube client: %w", err)
		}
		s.youtube = client
	}
	if len(s.sources) == 0 {
		s.logger.Warn(ctx, "no feed configured; polling will only recompute")
	}
	return nil
}

func (s *Service) buildScorer(ctx context.Context) error {
	if s.scorer != nil {
		return nil
	}
	if s.cfg.OpenAIAPIKey == "" {
		s.logger.Warn(ctx, "no OpenAI key configured; episodes will not be auto-scored")
		return nil
	}
	evaluator, err := ai.New(s.cfg.OpenAIAPIKey, ai.WithModel(s.cfg.OpenAIModel))
	if err != nil {
		return fmt.Errorf("build evaluator: %w", err)
	}
	s.scorer = newCachingScorer(s.cache, evaluator)
	return nil
}

func (s *Service) retryPolicy() retry.Policy {
	return retry.New(
		retry.WithAttempts(s.cfg.RetryAttempts),
		retry.WithBackoff(
			time.Duration(s.cfg.RetryInitialMS)*time.Millisecond,
			time.Duration(s.cfg.RetryMaxMS)*time.Millisecond,
		),
	)
}

// Stop releases persistent state.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service")

	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			s.logger.Warn(ctx, "close ledger", logger.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn(ctx, "close cache", logger.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "close store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// RunOnce executes one full polling cycle: fetch every source, gate new
// episodes through the dedup ledger, score them, recompute the leaderboard
// and publish the CSV exports. Cycles never overlap; a second caller blocks
// until the running cycle finishes.
func (s *Service) RunOnce(ctx context.Context) (model.PollSummary, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	start := time.Now()
	summary := model.PollSummary{}

	// A source-level failure aborts the cycle; the last-good snapshot stays
	// authoritative and the poller retries on its next tick.
	var fresh []model.Episode
	for _, src := range s.sources {
		episodes, err := src.Fetch(ctx)
		if err != nil {
			metrics.RecordErrorByComponent("poll", "source_unavailable")
			metrics.RecordPollRun("error")
			return summary, fmt.Errorf("fetch %s: %w", src.Name(), err)
		}
		summary.Fetched += len(episodes)
		fresh = append(fresh, episodes...)
	}

	newEpisodes := make([]model.Episode, 0, len(fresh))
	for _, ep := range fresh {
		if !s.ledger.IsNew(ctx, ep.Identity) {
			metrics.RecordDuplicateSkipped()
			continue
		}
		if err := s.store.UpsertEpisode(ctx, ep); err != nil {
			s.logger.Error(ctx, "upsert episode failed",
				logger.String("identity", ep.Identity),
				logger.Error(err),
			)
			continue
		}
		if err := s.ledger.MarkSeen(ctx, ep.Identity); err != nil {
			s.logger.Error(ctx, "mark seen failed",
				logger.String("identity", ep.Identity),
				logger.Error(err),
			)
			continue
		}
		newEpisodes = append(newEpisodes, ep)
	}
	summary.NewEpisodes = len(newEpisodes)
	metrics.UpdateLedgerSize(s.ledger.Size())

	// Scoring is driven by the store, not by this run's fetch: an episode
	// whose evaluation failed on an earlier cycle has no score row and is
	// picked up again here.
	pending, err := s.store.ListUnscoredEpisodes(ctx)
	if err != nil {
		metrics.RecordPollRun("error")
		return summary, fmt.Errorf("list unscored episodes: %w", err)
	}
	summary.Scored = s.scoreEpisodes(ctx, pending)

	snap, err := s.recompute(ctx)
	if err != nil {
		metrics.RecordPollRun("error")
		return summary, err
	}
	summary.RunID = snap.RunID
	summary.Entries = len(snap.Entries)

	metrics.RecordPollRun("success")
	s.logger.Info(ctx, "poll cycle complete",
		logger.String("runID", snap.RunID),
		logger.Int("fetched", summary.Fetched),
		logger.Int("new", summary.NewEpisodes),
		logger.Int("scored", summary.Scored),
		logger.Int("entries", summary.Entries),
		logger.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

// scoreEpisodes drains the given episodes through a scoring worker pool and
// returns the number of episodes handed to it. Without a scoring backend it
// is a no-op.
func (s *Service) scoreEpisodes(ctx context.Context, episodes []model.Episode) int {
	if s.scorer == nil || len(episodes) == 0 {
		return 0
	}
	q := jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.cfg.QueueSize),
		jobqueue.WithBufferSize(s.cfg.QueueSize),
	)
	pool := workerpool.NewPool(s.cfg.WorkerCount, q, s.scorer, s.store)
	pool.Start(ctx)

	enqueued := 0
	for _, ep := range episodes {
		if !q.Enqueue(ctx, ep) {
			s.logger.Warn(ctx, "scoring queue rejected episode",
				logger.String("identity", ep.Identity),
			)
			continue
		}
		enqueued++
	}
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "scoring pool drain interrupted", logger.Error(err))
	}
	return enqueued
}

// Recompute rebuilds the board from stored data and refreshes the CSV
// exports without fetching any source.
func (s *Service) Recompute(ctx context.Context) (board.Snapshot, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.recompute(ctx)
}

// recompute rebuilds the leaderboard from stored episodes and scores,
// persists the snapshot and refreshes the CSV exports.
func (s *Service) recompute(ctx context.Context) (board.Snapshot, error) {
	episodes, err := s.store.ListEpisodes(ctx)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("list episodes: %w", err)
	}
	scores, err := s.store.ListScores(ctx)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("list scores: %w", err)
	}

	snap := s.aggregator.Recompute(ctx, merge.Join(episodes, scores))
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return board.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	metrics.UpdateSnapshotTimestamp(snap.ComputedAt)

	s.exportCSV(ctx, snap)
	return snap, nil
}

// exportCSV publishes the leaderboard and trailing-week summary. Export
// failures are logged, not fatal; the snapshot already persisted.
func (s *Service) exportCSV(ctx context.Context, snap board.Snapshot) {
	path := filepath.Join(s.cfg.DataDir, leaderboardFilename)
	if err := export.WriteLeaderboard(path, snap); err != nil {
		s.logger.Warn(ctx, "leaderboard export failed", logger.Error(err))
	}

	now := time.Now()
	recent, err := s.store.ListScoresSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		s.logger.Warn(ctx, "weekly summary query failed", logger.Error(err))
		return
	}
	weeklyPath := filepath.Join(s.cfg.DataDir, weeklySummaryFilename)
	if err := export.WriteWeeklySummary(weeklyPath, recent, now); err != nil {
		s.logger.Warn(ctx, "weekly summary export failed", logger.Error(err))
	}
}

// TopN returns the top n leaderboard entries from the current snapshot.
func (s *Service) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	return s.aggregator.TopN(ctx, n), nil
}

// Episodes lists every stored episode, newest first.
func (s *Service) Episodes(ctx context.Context) ([]model.Episode, error) {
	return s.store.ListEpisodes(ctx)
}

// SubmitFeedback records a manual rating, stores a synthetic episode row
// for previously unknown identities and recomputes the board.
func (s *Service) SubmitFeedback(ctx context.Context, fb api.Feedback) (string, error) {
	id, err := identity.Resolve(identity.Source{NativeID: fb.Identity, Link: fb.Link})
	if err != nil {
		return "", err
	}

	if _, err := s.store.GetEpisode(ctx, id); errors.Is(err, repository.ErrNotFound) {
		title := fb.Title
		if title == "" {
			title = id
		}
		ep := model.Episode{
			Identity:  id,
			Title:     title,
			Published: fb.Release,
			Link:      fb.Link,
			Duration:  model.DurationUnknown,
			Source:    "manual",
		}
		if err := s.store.UpsertEpisode(ctx, ep); err != nil {
			return "", fmt.Errorf("upsert episode: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("lookup episode: %w", err)
	}

	now := time.Now().UTC()
	for _, metric := range model.RatedMetrics() {
		raw, present := fb.Scores[metric]
		improvement, hasImprovement := fb.Improvements[metric]
		if !present && !hasImprovement {
			continue
		}
		rec := model.ScoreRecord{
			Identity:       id,
			Metric:         metric,
			Raw:            raw,
			Present:        present,
			Improvement:    improvement,
			HasImprovement: hasImprovement,
			Guest:          fb.Guest,
			Show:           fb.Show,
			Comment:        fb.Comment,
			Release:        fb.Release,
			CreatedAt:      now,
		}
		if err := s.store.AppendScore(ctx, rec); err != nil {
			return "", fmt.Errorf("append score: %w", err)
		}
	}

	if _, err := s.recompute(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Search queries an external platform through the content cache. Responses
// are cached by platform and query so repeated searches skip the network.
func (s *Service) Search(ctx context.Context, platform, query string) (json.RawMessage, error) {
	key := platform + ":search:" + query
	payload, _, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		switch platform {
		case "spotify":
			if s.spotify == nil {
				return nil, fmt.Errorf("spotify: %w", feeds.ErrMissingCredential)
			}
			shows, err := s.spotify.SearchShows(ctx, query)
			if err != nil {
				return nil, err
			}
			return json.Marshal(shows)
		case "youtube":
			if s.youtube == nil {
				return nil, fmt.Errorf("youtube: %w", feeds.ErrMissingCredential)
			}
			episodes, err := s.youtube.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			return json.Marshal(episodes)
		default:
			return nil, fmt.Errorf("search platform %q: %w", platform, feeds.ErrSourceUnavailable)
		}
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"sources":     len(s.sources),
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	if n, err := s.store.CountEpisodes(ctx); err == nil {
		stats["episodes"] = n
	}
	if n, err := s.store.CountScores(ctx); err == nil {
		stats["scores"] = n
	}
	stats["ledgerSize"] = s.ledger.Size()

	snap := s.aggregator.Snapshot(ctx)
	stats["entries"] = len(snap.Entries)
	if snap.RunID != "" {
		stats["runID"] = snap.RunID
		stats["computedAt"] = snap.ComputedAt.UTC().Format(time.RFC3339)
	}

	metrics.UpdateWorkerCount(s.cfg.WorkerCount)
	return stats
}

// metricWeights converts configured weight names to typed metrics.
func metricWeights(weights map[string]float64) map[model.Metric]float64 {
	out := make(map[model.Metric]float64, len(weights))
	for name, w := range weights {
		out[model.Metric(name)] = w
	}
	return out
}
