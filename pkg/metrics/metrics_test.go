package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "echoboard")
				So(manager.subsystem, ShouldEqual, "leaderboard")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When created with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_ns")
				So(manager.subsystem, ShouldEqual, "test_sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
			})
		})

		Convey("When created with empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "echoboard")
				So(manager.subsystem, ShouldEqual, "leaderboard")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ingestion metrics", func() {
			So(func() {
				RecordEpisodeFetched("rss")
				RecordEpisodeDropped("rss")
				RecordFetchLatency("rss", 12.5)
			}, ShouldNotPanic)
		})

		Convey("When recording ledger and cache metrics", func() {
			So(func() {
				RecordDuplicateSkipped()
				UpdateLedgerSize(42)
				RecordCacheHit()
				RecordCacheMiss()
			}, ShouldNotPanic)
		})

		Convey("When recording scoring metrics", func() {
			So(func() {
				RecordScoringLatency(250)
				RecordScoringError()
				RecordScoreWritten()
			}, ShouldNotPanic)
		})

		Convey("When recording leaderboard metrics", func() {
			So(func() {
				RecordRecomputeDuration(3.2)
				UpdateLeaderboardEntries(7)
				UpdateSnapshotTimestamp(time.Now())
				RecordPollRun("ok")
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(55)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and component error metrics", func() {
			So(func() {
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequestDuration("/leaderboard", "GET", "200", 1.5)
				RecordErrorByComponent("repository", "query")
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When retrieving it", func() {
			registry := GetRegistry()

			Convey("Then it should not be nil and should gather without error", func() {
				So(registry, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})
	})
}
