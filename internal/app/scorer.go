package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bymedia/echoboard/internal/adapters/cache"
	workerpool "github.com/bymedia/echoboard/internal/adapters/mq/worker"
	"github.com/bymedia/echoboard/internal/domain/model"
)

const scoreKeyPrefix = "ai:score:"

// cachingScorer routes episode evaluation through the content cache so a
// re-presented identity never triggers a second model call. Evaluation
// failures propagate uncached and are retried on the next attempt.
type cachingScorer struct {
	cache cache.Cache
	next  workerpool.Scorer
}

func newCachingScorer(c cache.Cache, next workerpool.Scorer) *cachingScorer {
	return &cachingScorer{cache: c, next: next}
}

func (s *cachingScorer) ScoreEpisode(ctx context.Context, ep model.Episode) (model.ScoreRecord, error) {
	payload, _, err := s.cache.GetOrCompute(ctx, scoreKeyPrefix+ep.Identity, func(ctx context.Context) ([]byte, error) {
		rec, err := s.next.ScoreEpisode(ctx, ep)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rec)
	})
	if err != nil {
		return model.ScoreRecord{}, err
	}

	var rec model.ScoreRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("decode cached score for %s: %w", ep.Identity, err)
	}
	return rec, nil
}
