package board

import (
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/internal/domain/rank"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights sets the metric weights used for the composite score. Weights
// need not sum to 1; they are normalized by their total. Non-positive
// weights are dropped.
func WithWeights(weights map[model.Metric]float64) Option {
	return func(a *Aggregator) {
		cleaned := make(map[model.Metric]float64, len(weights))
		for metric, w := range weights {
			if w > 0 {
				cleaned[metric] = w
			}
		}
		if len(cleaned) > 0 {
			a.weights = cleaned
		}
	}
}

// WithRanker sets the badge ranker applied to recomputed entries.
func WithRanker(r *rank.Ranker) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.ranker = r
		}
	}
}
