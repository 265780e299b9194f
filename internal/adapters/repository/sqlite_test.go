package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/repository"
	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEpisodeStorage(t *testing.T) {
	convey.Convey("Given an open store", t, func() {
		ctx := context.Background()
		store := openStore(t)

		ep := model.Episode{
			Identity:  "ep-001",
			Title:     "Deep Dive",
			Published: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Link:      "https://example.com/ep-001",
			Duration:  "41:20",
			Summary:   "a conversation",
			Source:    "rss",
		}

		convey.Convey("When upserting and fetching an episode", func() {
			err := store.UpsertEpisode(ctx, ep)
			convey.So(err, convey.ShouldBeNil)

			got, err := store.GetEpisode(ctx, "ep-001")

			convey.Convey("Then the stored row should round-trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Title, convey.ShouldEqual, "Deep Dive")
				convey.So(got.Published.Equal(ep.Published), convey.ShouldBeTrue)
				convey.So(got.Source, convey.ShouldEqual, "rss")
			})
		})

		convey.Convey("When upserting the same identity twice", func() {
			convey.So(store.UpsertEpisode(ctx, ep), convey.ShouldBeNil)
			updated := ep
			updated.Title = "Deep Dive (remastered)"
			convey.So(store.UpsertEpisode(ctx, updated), convey.ShouldBeNil)

			convey.Convey("Then the later row should win and the count stay at one", func() {
				got, err := store.GetEpisode(ctx, "ep-001")
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Title, convey.ShouldEqual, "Deep Dive (remastered)")

				n, err := store.CountEpisodes(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When fetching an unknown identity", func() {
			_, err := store.GetEpisode(ctx, "missing")

			convey.Convey("Then ErrNotFound should be returned", func() {
				convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
			})
		})

		convey.Convey("When listing episodes", func() {
			older := ep
			older.Identity = "ep-000"
			older.Published = ep.Published.Add(-24 * time.Hour)
			convey.So(store.UpsertEpisode(ctx, ep), convey.ShouldBeNil)
			convey.So(store.UpsertEpisode(ctx, older), convey.ShouldBeNil)

			eps, err := store.ListEpisodes(ctx)

			convey.Convey("Then the most recent episode should come first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(eps), convey.ShouldEqual, 2)
				convey.So(eps[0].Identity, convey.ShouldEqual, "ep-001")
				convey.So(eps[1].Identity, convey.ShouldEqual, "ep-000")
			})
		})

		convey.Convey("When listing unscored episodes", func() {
			scored := ep
			scored.Identity = "ep-002"
			convey.So(store.UpsertEpisode(ctx, ep), convey.ShouldBeNil)
			convey.So(store.UpsertEpisode(ctx, scored), convey.ShouldBeNil)
			convey.So(store.AppendScore(ctx, model.ScoreRecord{
				Identity:  "ep-002",
				Metric:    model.MetricRelevance,
				Raw:       8,
				Present:   true,
				CreatedAt: time.Now().UTC(),
			}), convey.ShouldBeNil)

			pending, err := store.ListUnscoredEpisodes(ctx)

			convey.Convey("Then only the episode without a score row remains", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(pending), convey.ShouldEqual, 1)
				convey.So(pending[0].Identity, convey.ShouldEqual, "ep-001")
			})
		})
	})
}

func TestScoreStorage(t *testing.T) {
	convey.Convey("Given an open store", t, func() {
		ctx := context.Background()
		store := openStore(t)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rec := model.ScoreRecord{
			Identity:       "ep-001",
			Metric:         model.MetricAudio,
			Raw:            8.5,
			Present:        true,
			Improvement:    12,
			HasImprovement: true,
			Guest:          "Dana",
			Show:           "Deep Dive",
			CreatedAt:      base,
		}

		convey.Convey("When appending and listing scores", func() {
			convey.So(store.AppendScore(ctx, rec), convey.ShouldBeNil)

			second := rec
			second.Metric = model.MetricFlow
			second.Raw = 7
			second.HasImprovement = false
			second.CreatedAt = base.Add(time.Minute)
			convey.So(store.AppendScore(ctx, second), convey.ShouldBeNil)

			scores, err := store.ListScores(ctx)

			convey.Convey("Then both records should return in insertion order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(scores), convey.ShouldEqual, 2)
				convey.So(scores[0].Metric, convey.ShouldEqual, model.MetricAudio)
				convey.So(scores[0].Present, convey.ShouldBeTrue)
				convey.So(scores[0].HasImprovement, convey.ShouldBeTrue)
				convey.So(scores[1].Metric, convey.ShouldEqual, model.MetricFlow)
				convey.So(scores[1].HasImprovement, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When listing scores since a cutoff", func() {
			convey.So(store.AppendScore(ctx, rec), convey.ShouldBeNil)

			later := rec
			later.Metric = model.MetricStructure
			later.CreatedAt = base.Add(48 * time.Hour)
			convey.So(store.AppendScore(ctx, later), convey.ShouldBeNil)

			scores, err := store.ListScoresSince(ctx, base.Add(24*time.Hour))

			convey.Convey("Then only records at or after the cutoff should return", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(scores), convey.ShouldEqual, 1)
				convey.So(scores[0].Metric, convey.ShouldEqual, model.MetricStructure)
			})
		})

		convey.Convey("When counting scores", func() {
			convey.So(store.AppendScore(ctx, rec), convey.ShouldBeNil)

			n, err := store.CountScores(ctx)

			convey.Convey("Then the count should match", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestSnapshotStorage(t *testing.T) {
	convey.Convey("Given an open store", t, func() {
		ctx := context.Background()
		store := openStore(t)

		snap := board.Snapshot{
			RunID:      "run-1",
			ComputedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			Entries: []model.LeaderboardEntry{
				{
					Rank:       1,
					Identities: []string{"ep-001"},
					Title:      "Deep Dive",
					Release:    "2026-03-01",
					Composite:  91.3,
					Metrics:    map[model.Metric]float64{model.MetricAudio: 100},
					Badges:     []string{"top performer"},
				},
			},
		}

		convey.Convey("When no snapshot has been saved", func() {
			_, err := store.LatestSnapshot(ctx)

			convey.Convey("Then ErrNotFound should be returned", func() {
				convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
			})
		})

		convey.Convey("When saving and reloading a snapshot", func() {
			convey.So(store.SaveSnapshot(ctx, snap), convey.ShouldBeNil)

			got, err := store.LatestSnapshot(ctx)

			convey.Convey("Then the snapshot should round-trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.RunID, convey.ShouldEqual, "run-1")
				convey.So(got.ComputedAt.Equal(snap.ComputedAt), convey.ShouldBeTrue)
				convey.So(len(got.Entries), convey.ShouldEqual, 1)
				convey.So(got.Entries[0].Title, convey.ShouldEqual, "Deep Dive")
				convey.So(got.Entries[0].Badges, convey.ShouldResemble, []string{"top performer"})
			})
		})

		convey.Convey("When saving a second snapshot", func() {
			convey.So(store.SaveSnapshot(ctx, snap), convey.ShouldBeNil)

			replacement := snap
			replacement.RunID = "run-2"
			replacement.Entries = nil
			convey.So(store.SaveSnapshot(ctx, replacement), convey.ShouldBeNil)

			got, err := store.LatestSnapshot(ctx)

			convey.Convey("Then the earlier snapshot should be replaced wholesale", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.RunID, convey.ShouldEqual, "run-2")
				convey.So(len(got.Entries), convey.ShouldEqual, 0)
			})
		})
	})
}
