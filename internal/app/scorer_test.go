package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bymedia/echoboard/internal/adapters/cache"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
)

type countingScorer struct {
	calls int
	err   error
}

func (c *countingScorer) ScoreEpisode(_ context.Context, ep model.Episode) (model.ScoreRecord, error) {
	c.calls++
	if c.err != nil {
		return model.ScoreRecord{}, c.err
	}
	return model.ScoreRecord{
		Identity: ep.Identity,
		Metric:   model.MetricRelevance,
		Raw:      8,
		Present:  true,
	}, nil
}

func TestCachingScorer(t *testing.T) {
	_ = logger.Init()

	Convey("Given a scorer wrapped by the content cache", t, func() {
		ctx := context.Background()
		store, err := cache.Open(t.TempDir())
		So(err, ShouldBeNil)
		defer store.Close()

		inner := &countingScorer{}
		scorer := newCachingScorer(store, inner)
		episode := model.Episode{Identity: "ep-1", Title: "Deep Dive"}

		Convey("When scoring the same identity twice", func() {
			first, err := scorer.ScoreEpisode(ctx, episode)
			So(err, ShouldBeNil)
			second, err := scorer.ScoreEpisode(ctx, episode)
			So(err, ShouldBeNil)

			Convey("Then the model is only called once", func() {
				So(inner.calls, ShouldEqual, 1)
				So(second, ShouldResemble, first)
				So(first.Raw, ShouldEqual, 8)
				So(first.Present, ShouldBeTrue)
			})
		})

		Convey("When the model fails", func() {
			inner.err = errors.New("rate limited")
			_, err := scorer.ScoreEpisode(ctx, episode)

			Convey("Then the failure propagates uncached and the next call retries", func() {
				So(err, ShouldNotBeNil)

				inner.err = nil
				rec, err := scorer.ScoreEpisode(ctx, episode)
				So(err, ShouldBeNil)
				So(rec.Identity, ShouldEqual, "ep-1")
				So(inner.calls, ShouldEqual, 2)
			})
		})
	})
}
