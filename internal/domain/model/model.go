// Package model contains domain models passed between layers.
package model

import "time"

// DurationUnknown is the sentinel stored when a feed entry carries no
// duration information.
const DurationUnknown = "unknown"

// Metric names a score dimension recorded against an episode.
type Metric string

// Recognized metric dimensions. Audio, flow, guest energy and structure are
// the manually rated dimensions that feed the composite score by default.
// Relevance holds AI-generated evaluation scores.
const (
	MetricAudio       Metric = "audio"
	MetricFlow        Metric = "flow"
	MetricGuestEnergy Metric = "guest_energy"
	MetricStructure   Metric = "structure"
	MetricRelevance   Metric = "relevance"
)

// RatedMetrics returns the manually rated dimensions in their canonical order.
func RatedMetrics() []Metric {
	return []Metric{MetricAudio, MetricFlow, MetricGuestEnergy, MetricStructure}
}

// Episode is a fetched episode or show record, already resolved to a stable
// identity at the source boundary.
type Episode struct {
	Identity  string    // platform-native id, else canonical link
	Title     string    //
	Published time.Time // publish timestamp from the source
	Link      string    // canonical URL
	Duration  string    // e.g. "41:20"; DurationUnknown when absent
	Summary   string    //
	Source    string    // "rss", "spotify", "youtube", "manual"
}

// ScoreRecord is one appended score for a single metric dimension of an
// identity. Raw is meaningful only when Present is true; an absent raw value
// still carries metadata and an optional improvement delta.
type ScoreRecord struct {
	Identity       string
	Metric         Metric
	Raw            float64
	Present        bool
	Improvement    float64
	HasImprovement bool

	// Episode metadata carried by manual feedback submissions.
	Guest   string
	Show    string
	Comment string
	Release time.Time

	CreatedAt time.Time
}

// EnrichedRecord is an Episode joined with the latest score per metric.
// Scores is empty, never nil, when the identity has no recorded scores.
type EnrichedRecord struct {
	Episode Episode
	Scores  map[Metric]ScoreRecord
}

// Score returns the raw value for metric and whether it is present.
func (r EnrichedRecord) Score(metric Metric) (float64, bool) {
	rec, ok := r.Scores[metric]
	if !ok || !rec.Present {
		return 0, false
	}
	return rec.Raw, true
}

// Improvement returns the improvement delta for metric and whether one was
// recorded.
func (r EnrichedRecord) Improvement(metric Metric) (float64, bool) {
	rec, ok := r.Scores[metric]
	if !ok || !rec.HasImprovement {
		return 0, false
	}
	return rec.Improvement, true
}

// LeaderboardEntry is one row of the recomputed leaderboard.
type LeaderboardEntry struct {
	Rank       int                `json:"rank"`
	Identities []string           `json:"identities"`
	Title      string             `json:"title"`
	Release    string             `json:"release_date"`
	Guest      string             `json:"guest,omitempty"`
	Show       string             `json:"show,omitempty"`
	Composite  float64            `json:"composite_score"`
	Metrics    map[Metric]float64 `json:"metrics"`
	Badges     []string           `json:"badges"`
}

// PollSummary reports the outcome of a single polling cycle.
type PollSummary struct {
	RunID       string `json:"run_id"`
	Fetched     int    `json:"fetched"`
	NewEpisodes int    `json:"new_episodes"`
	Scored      int    `json:"scored"`
	Entries     int    `json:"entries"`
}
