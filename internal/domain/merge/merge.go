// Package merge joins fetched episodes with recorded scores by identity.
package merge

import (
	"github.com/bymedia/echoboard/internal/domain/model"
)

// Join left-joins episodes with scores on identity.
//
// Every episode appears exactly once in the output, in input order,
// regardless of whether any score exists for it; episodes without scores get
// an empty (non-nil) score map so absent values normalize to the floor
// downstream instead of propagating as nulls.
//
// Duplicate identities inside either input are resolved by keeping the most
// recent write: for episodes the last occurrence wins, for scores the record
// with the latest CreatedAt per (identity, metric) wins, falling back to list
// order on equal timestamps. This is a silent overwrite, not a merge of both
// records.
//
// The join is O(n+m): one pass to index scores, one pass over episodes.
func Join(episodes []model.Episode, scores []model.ScoreRecord) []model.EnrichedRecord {
	// Latest score per identity and metric.
	index := make(map[string]map[model.Metric]model.ScoreRecord, len(scores))
	for _, rec := range scores {
		if rec.Identity == "" {
			continue
		}
		byMetric, ok := index[rec.Identity]
		if !ok {
			byMetric = make(map[model.Metric]model.ScoreRecord)
			index[rec.Identity] = byMetric
		}
		if prev, ok := byMetric[rec.Metric]; ok && rec.CreatedAt.Before(prev.CreatedAt) {
			continue
		}
		byMetric[rec.Metric] = rec
	}

	// Last occurrence wins for duplicate episode identities.
	seen := make(map[string]int, len(episodes))
	out := make([]model.EnrichedRecord, 0, len(episodes))
	for _, ep := range episodes {
		if pos, dup := seen[ep.Identity]; dup {
			out[pos].Episode = ep
			continue
		}
		seen[ep.Identity] = len(out)
		out = append(out, model.EnrichedRecord{Episode: ep, Scores: scoresFor(index, ep.Identity)})
	}
	return out
}

func scoresFor(index map[string]map[model.Metric]model.ScoreRecord, id string) map[model.Metric]model.ScoreRecord {
	if byMetric, ok := index[id]; ok {
		return byMetric
	}
	return map[model.Metric]model.ScoreRecord{}
}
