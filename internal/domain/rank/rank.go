// Package rank converts raw scores into bounded comparable values and
// assigns qualitative badges.
package rank

import (
	"github.com/bymedia/echoboard/internal/domain/model"
)

// Default badge thresholds and labels. Thresholds are configuration, not
// hidden constants; see the options.
const (
	defaultTopThreshold      = 90.0
	defaultImprovedThreshold = 10.0

	BadgeTopPerformer = "top performer"
	BadgeMostImproved = "most improved"
	BadgeNone         = "-"

	normalizedMax = 100.0
)

// Normalize min-max rescales the raw values of one metric across records
// into [0,100], aligned by index with records.
//
// Absent values normalize to 0, never to a null. When every value is absent
// the whole column is 0. When all present values are tied the range is
// substituted with 1, so a fully tied column collapses to a single
// normalized value rather than all-100.
func Normalize(records []model.EnrichedRecord, metric model.Metric) []float64 {
	norms := make([]float64, len(records))

	minVal, maxVal, any := 0.0, 0.0, false
	for _, rec := range records {
		v, ok := rec.Score(metric)
		if !ok {
			continue
		}
		if !any || v < minVal {
			minVal = v
		}
		if !any || v > maxVal {
			maxVal = v
		}
		any = true
	}
	if !any {
		return norms
	}

	spread := maxVal - minVal
	if spread == 0 {
		spread = 1
	}
	for i, rec := range records {
		v, ok := rec.Score(metric)
		if !ok {
			continue
		}
		norms[i] = (v - minVal) / spread * normalizedMax
	}
	return norms
}

// Ranker assigns badges from normalized scores using configured thresholds.
type Ranker struct {
	topThreshold      float64
	improvedThreshold float64
}

// New creates a Ranker with configuration options.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		topThreshold:      defaultTopThreshold,
		improvedThreshold: defaultImprovedThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Badges is a pure function of the normalized score and the improvement
// delta. When no rule applies it returns the neutral placeholder badge, so
// every entry carries at least one badge.
func (r *Ranker) Badges(norm float64, improvement float64, hasImprovement bool) []string {
	var badges []string
	if norm >= r.topThreshold {
		badges = append(badges, BadgeTopPerformer)
	}
	if hasImprovement && improvement > r.improvedThreshold {
		badges = append(badges, BadgeMostImproved)
	}
	if len(badges) == 0 {
		badges = append(badges, BadgeNone)
	}
	return badges
}
