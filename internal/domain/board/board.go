// Package board recomputes the episode leaderboard from enriched records.
package board

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/internal/domain/rank"
	"github.com/bymedia/echoboard/pkg/metrics"
)

const groupKeySep = "\x1f"

// Snapshot is one wholesale recomputation of the leaderboard. Entries are
// never mutated after publication; each run replaces the snapshot atomically.
type Snapshot struct {
	RunID      string                   `json:"run_id"`
	ComputedAt time.Time                `json:"computed_at"`
	Entries    []model.LeaderboardEntry `json:"entries"`
}

// Aggregator groups enriched records, computes weighted composite scores and
// holds the current snapshot behind an atomic swap.
//
// Grouping is by (title, release date) rather than by resolved identity:
// source identities are not guaranteed stable across re-fetches of the same
// logical episode recorded at different times. The weaker key can collapse
// distinct episodes sharing a title and date; the contributing identities are
// kept on every entry so a stronger canonical key can replace it later.
type Aggregator struct {
	mu       sync.RWMutex
	weights  map[model.Metric]float64
	ranker   *rank.Ranker
	snapshot Snapshot
}

// New creates an Aggregator with configuration options. The default weights
// split the composite evenly across the four rated dimensions.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights: map[model.Metric]float64{
			model.MetricAudio:       0.25,
			model.MetricFlow:        0.25,
			model.MetricGuestEnergy: 0.25,
			model.MetricStructure:   0.25,
		},
		ranker: rank.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type group struct {
	title      string
	release    time.Time
	guest      string
	show       string
	identities []string

	sums   map[model.Metric]float64
	counts map[model.Metric]int

	improvementSum   float64
	improvementCount int
}

// Recompute builds a fresh snapshot from records and publishes it, replacing
// the previous one in a single swap. Empty input yields an empty snapshot,
// not an error.
func (a *Aggregator) Recompute(ctx context.Context, records []model.EnrichedRecord) Snapshot {
	start := time.Now()

	norms := make(map[model.Metric][]float64, len(a.weights))
	for metric := range a.weights {
		norms[metric] = rank.Normalize(records, metric)
	}

	// Group rows in first-seen order.
	groups := make(map[string]*group, len(records))
	var order []string
	for i, rec := range records {
		key := groupKey(rec)
		g, ok := groups[key]
		if !ok {
			g = &group{
				title:   rec.Episode.Title,
				release: releaseOf(rec),
				sums:    make(map[model.Metric]float64, len(a.weights)),
				counts:  make(map[model.Metric]int, len(a.weights)),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.identities = append(g.identities, rec.Episode.Identity)
		for metric := range a.weights {
			g.sums[metric] += norms[metric][i]
			g.counts[metric]++
		}
		for metric := range a.weights {
			if delta, ok := rec.Improvement(metric); ok {
				g.improvementSum += delta
				g.improvementCount++
			}
		}
		for _, metric := range metricOrder() {
			sr, ok := rec.Scores[metric]
			if !ok {
				continue
			}
			if g.guest == "" {
				g.guest = sr.Guest
			}
			if g.show == "" {
				g.show = sr.Show
			}
		}
	}

	totalWeight := 0.0
	for _, w := range a.weights {
		totalWeight += w
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		perMetric := make(map[model.Metric]float64, len(a.weights))
		composite := 0.0
		for metric, weight := range a.weights {
			mean := 0.0
			if g.counts[metric] > 0 {
				mean = g.sums[metric] / float64(g.counts[metric])
			}
			perMetric[metric] = mean
			if totalWeight > 0 {
				composite += mean * weight / totalWeight
			}
		}

		improvement := 0.0
		if g.improvementCount > 0 {
			improvement = g.improvementSum / float64(g.improvementCount)
		}

		release := ""
		if !g.release.IsZero() {
			release = g.release.Format(time.DateOnly)
		}
		entries = append(entries, model.LeaderboardEntry{
			Identities: g.identities,
			Title:      g.title,
			Release:    release,
			Guest:      g.guest,
			Show:       g.show,
			Composite:  composite,
			Metrics:    perMetric,
			Badges:     a.ranker.Badges(composite, improvement, g.improvementCount > 0),
		})
	}

	// Stable sort keeps first-seen grouping order between tied composites.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Composite > entries[j].Composite
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	snap := Snapshot{
		RunID:      uuid.NewString(),
		ComputedAt: time.Now().UTC(),
		Entries:    entries,
	}

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	metrics.RecordRecomputeDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateLeaderboardEntries(len(entries))
	return snap
}

// Replace installs a previously persisted snapshot, used to restore the
// last-good board at startup.
func (a *Aggregator) Replace(snap Snapshot) {
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
}

// Snapshot returns the current snapshot. Before the first recomputation it
// is the defined empty state.
func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// TopN returns up to n leading entries of the current snapshot.
func (a *Aggregator) TopN(ctx context.Context, n int) []model.LeaderboardEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n > len(a.snapshot.Entries) {
		n = len(a.snapshot.Entries)
	}
	out := make([]model.LeaderboardEntry, n)
	copy(out, a.snapshot.Entries[:n])
	return out
}

// groupKey builds the weaker aggregation key from title and release date.
func groupKey(rec model.EnrichedRecord) string {
	release := releaseOf(rec)
	day := ""
	if !release.IsZero() {
		day = release.Format(time.DateOnly)
	}
	return rec.Episode.Title + groupKeySep + day
}

// releaseOf prefers the release date recorded with feedback and falls back
// to the source publish timestamp. Metrics are walked in canonical order so
// the chosen date is deterministic.
func releaseOf(rec model.EnrichedRecord) time.Time {
	for _, metric := range metricOrder() {
		if sr, ok := rec.Scores[metric]; ok && !sr.Release.IsZero() {
			return sr.Release
		}
	}
	return rec.Episode.Published
}

func metricOrder() []model.Metric {
	return append(model.RatedMetrics(), model.MetricRelevance)
}
