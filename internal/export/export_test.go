package export_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/internal/export"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteLeaderboard(t *testing.T) {
	Convey("Given a leaderboard snapshot", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "exports", "leaderboard.csv")
		snap := board.Snapshot{
			RunID:      "run-1",
			ComputedAt: time.Now(),
			Entries: []model.LeaderboardEntry{
				{
					Rank:      1,
					Title:     "Deep Dive",
					Release:   "2026-03-01",
					Guest:     "Ada",
					Show:      "EchoBoard Weekly",
					Composite: 91.25,
					Metrics: map[model.Metric]float64{
						model.MetricAudio: 95,
						model.MetricFlow:  87.5,
					},
					Badges: []string{"top performer"},
				},
				{Rank: 2, Title: "Night Shift", Composite: 40, Badges: []string{"-"}},
			},
		}

		Convey("When exporting", func() {
			err := export.WriteLeaderboard(path, snap)

			Convey("Then the CSV holds a header and one row per entry", func() {
				So(err, ShouldBeNil)
				rows := readCSV(t, path)
				So(rows, ShouldHaveLength, 3)
				So(rows[0][0], ShouldEqual, "rank")
				So(rows[1][1], ShouldEqual, "Deep Dive")
				So(rows[1][5], ShouldEqual, "91.25")
				So(rows[1][6], ShouldEqual, "95.00")
				So(rows[1][10], ShouldEqual, "top performer")
				So(rows[2][6], ShouldEqual, "")
			})
		})

		Convey("When exporting over an existing file", func() {
			So(export.WriteLeaderboard(path, snap), ShouldBeNil)
			snap.Entries = snap.Entries[:1]
			So(export.WriteLeaderboard(path, snap), ShouldBeNil)

			Convey("Then the file is replaced wholesale", func() {
				rows := readCSV(t, path)
				So(rows, ShouldHaveLength, 2)
			})

			Convey("And no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})
}

func TestWriteWeeklySummary(t *testing.T) {
	Convey("Given a mix of recent and stale score records", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "weekly_summary.csv")
		summaryPath := filepath.Join(dir, "weekly_summary_summary.csv")
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		records := []model.ScoreRecord{
			{
				Identity: "ep-1", Metric: model.MetricAudio, Raw: 4, Present: true,
				Guest: "Ada", Show: "EchoBoard Weekly",
				CreatedAt: now.Add(-24 * time.Hour),
			},
			{
				Identity: "ep-1", Metric: model.MetricFlow, Raw: 5, Present: true,
				CreatedAt: now.Add(-24 * time.Hour),
			},
			{
				Identity: "ep-2", Metric: model.MetricAudio, Raw: 2, Present: true,
				CreatedAt: now.Add(-48 * time.Hour),
			},
			{
				Identity: "ep-3", Metric: model.MetricAudio, Raw: 5, Present: true,
				CreatedAt: now.Add(-10 * 24 * time.Hour), // stale
			},
		}

		Convey("When exporting the weekly summary", func() {
			err := export.WriteWeeklySummary(path, records, now)

			Convey("Then only the trailing seven days appear, oldest first", func() {
				So(err, ShouldBeNil)
				rows := readCSV(t, path)
				So(rows, ShouldHaveLength, 4)
				So(rows[1][0], ShouldEqual, "ep-2")
				So(rows[2][0], ShouldEqual, "ep-1")
			})

			Convey("And the companion file aggregates the window", func() {
				rows := readCSV(t, summaryPath)
				So(rows, ShouldHaveLength, 2)
				So(rows[1][0], ShouldEqual, "2") // distinct identities
				So(rows[1][1], ShouldEqual, "3.00")
				So(rows[1][2], ShouldEqual, "5.00")
				So(rows[1][3], ShouldEqual, "") // no guest_energy records
			})
		})

		Convey("When no records fall inside the window", func() {
			err := export.WriteWeeklySummary(path, records[3:], now)

			Convey("Then both files carry the empty-state message", func() {
				So(err, ShouldBeNil)
				rows := readCSV(t, path)
				So(rows, ShouldHaveLength, 2)
				So(rows[1][0], ShouldEqual, "No data in past 7 days.")
				So(readCSV(t, summaryPath)[1][0], ShouldEqual, "No data in past 7 days.")
			})
		})
	})
}
