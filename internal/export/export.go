// Package export publishes leaderboard and feedback data as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bymedia/echoboard/internal/domain/board"
	"github.com/bymedia/echoboard/internal/domain/model"
)

// weeklyWindow is the trailing period covered by the weekly summary.
const weeklyWindow = 7 * 24 * time.Hour

// WriteLeaderboard publishes a snapshot as CSV. The file appears atomically:
// rows are written to a temp file in the target directory and renamed over
// the destination, so readers never observe a partial export.
func WriteLeaderboard(path string, snap board.Snapshot) error {
	header := []string{
		"rank", "title", "release_date", "guest", "show", "composite_score",
		"audio", "flow", "guest_energy", "structure", "badges",
	}
	rows := make([][]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Title,
			e.Release,
			e.Guest,
			e.Show,
			formatScore(e.Composite),
			formatMetric(e.Metrics, model.MetricAudio),
			formatMetric(e.Metrics, model.MetricFlow),
			formatMetric(e.Metrics, model.MetricGuestEnergy),
			formatMetric(e.Metrics, model.MetricStructure),
			strings.Join(e.Badges, "; "),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteWeeklySummary publishes the score records from the trailing seven
// days as a detail CSV, plus a one-row aggregate in a companion file named
// <path minus .csv>_summary.csv. With no recent records both files carry a
// single message row instead.
func WriteWeeklySummary(path string, records []model.ScoreRecord, now time.Time) error {
	cutoff := now.Add(-weeklyWindow)
	recent := make([]model.ScoreRecord, 0, len(records))
	for _, rec := range records {
		if !rec.CreatedAt.Before(cutoff) {
			recent = append(recent, rec)
		}
	}
	summaryPath := strings.TrimSuffix(path, ".csv") + "_summary.csv"

	if len(recent) == 0 {
		msg := [][]string{{"No data in past 7 days."}}
		if err := writeCSV(path, []string{"message"}, msg); err != nil {
			return err
		}
		return writeCSV(summaryPath, []string{"message"}, msg)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.Before(recent[j].CreatedAt)
	})

	detailHeader := []string{
		"identity", "metric", "score", "improvement", "guest", "show",
		"comment", "release_date", "created_at",
	}
	detail := make([][]string, 0, len(recent))
	for _, rec := range recent {
		score, improvement := "", ""
		if rec.Present {
			score = formatScore(rec.Raw)
		}
		if rec.HasImprovement {
			improvement = formatScore(rec.Improvement)
		}
		release := ""
		if !rec.Release.IsZero() {
			release = rec.Release.Format("2006-01-02")
		}
		detail = append(detail, []string{
			rec.Identity,
			string(rec.Metric),
			score,
			improvement,
			rec.Guest,
			rec.Show,
			rec.Comment,
			release,
			rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSV(path, detailHeader, detail); err != nil {
		return err
	}

	summaryHeader := []string{
		"episodes_reviewed", "avg_audio", "avg_flow", "avg_guest_energy", "avg_structure",
	}
	summaryRow := []string{
		strconv.Itoa(distinctIdentities(recent)),
		averageFor(recent, model.MetricAudio),
		averageFor(recent, model.MetricFlow),
		averageFor(recent, model.MetricGuestEnergy),
		averageFor(recent, model.MetricStructure),
	}
	return writeCSV(summaryPath, summaryHeader, [][]string{summaryRow})
}

func distinctIdentities(records []model.ScoreRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Identity] = struct{}{}
	}
	return len(seen)
}

// averageFor returns the mean of present raw values for metric, rounded to
// two decimals, or "" when no record carries the metric.
func averageFor(records []model.ScoreRecord, metric model.Metric) string {
	var sum float64
	var n int
	for _, rec := range records {
		if rec.Metric == metric && rec.Present {
			sum += rec.Raw
			n++
		}
	}
	if n == 0 {
		return ""
	}
	return formatScore(sum / float64(n))
}

func formatMetric(metrics map[model.Metric]float64, metric model.Metric) string {
	v, ok := metrics[metric]
	if !ok {
		return ""
	}
	return formatScore(v)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish export: %w", err)
	}
	return nil
}
