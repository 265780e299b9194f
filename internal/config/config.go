// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the sqlite database, the dedup ledger and CSV exports.
	DataDir string `koanf:"data_dir"`

	// FeedURL is the RSS/Atom feed polled for new episodes.
	FeedURL string `koanf:"feed_url"`

	// PollIntervalSeconds is the fixed delay between poll runs.
	PollIntervalSeconds int `koanf:"poll_interval_seconds"`

	// QueueSize bounds the in-memory scoring queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MetricWeights maps metric names to their share of the composite score.
	MetricWeights map[string]float64 `koanf:"metric_weights"`

	// TopPerformerThreshold is the normalized score at which the
	// top-performer badge is awarded.
	TopPerformerThreshold float64 `koanf:"top_performer_threshold"`

	// ImprovementThreshold is the improvement delta at which the
	// most-improved badge is awarded.
	ImprovementThreshold float64 `koanf:"improvement_threshold"`

	// CacheTTLSeconds expires cached source responses; zero disables expiry.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// Retry policy for outbound source and scoring calls.
	RetryAttempts  int `koanf:"retry_attempts"`
	RetryInitialMS int `koanf:"retry_initial_ms"`
	RetryMaxMS     int `koanf:"retry_max_ms"`

	// Spotify client-credentials flow.
	SpotifyClientID     string `koanf:"spotify_client_id"`
	SpotifyClientSecret string `koanf:"spotify_client_secret"`
	SpotifyPageSize     int    `koanf:"spotify_page_size"`
	SpotifyMaxResults   int    `koanf:"spotify_max_results"`

	// YouTubeAPIKey authorizes the YouTube Data API search.
	YouTubeAPIKey string `koanf:"youtube_api_key"`

	// OpenAI scoring backend.
	OpenAIAPIKey string `koanf:"openai_api_key"`
	OpenAIModel  string `koanf:"openai_model"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DataDir:             "data",
		PollIntervalSeconds: 900,
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU() * 2,
		MaxLeaderboardLimit: 100,
		MetricWeights: map[string]float64{
			"audio":        0.25,
			"flow":         0.25,
			"guest_energy": 0.25,
			"structure":    0.25,
		},
		TopPerformerThreshold: 90,
		ImprovementThreshold:  10,
		CacheTTLSeconds:       0,
		RetryAttempts:         3,
		RetryInitialMS:        500,
		RetryMaxMS:            10_000,
		SpotifyPageSize:       20,
		SpotifyMaxResults:     100,
		OpenAIModel:           "gpt-4o-mini",
	}
}
