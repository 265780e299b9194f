package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/bymedia/echoboard/internal/app"
	"github.com/bymedia/echoboard/internal/domain/model"
)

func newBoardCommand(configFlag *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the current leaderboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configFlag)
			if err != nil {
				return err
			}

			svc := service.New(cfg)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			entries, err := svc.TopN(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard is empty; run a poll or submit feedback first")
				return nil
			}

			headers := []string{"Rank", "Title", "Release", "Guest", "Show", "Score", "Audio", "Flow", "Energy", "Structure", "Badges"}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.Itoa(e.Rank),
					e.Title,
					e.Release,
					e.Guest,
					e.Show,
					strconv.FormatFloat(e.Composite, 'f', 2, 64),
					metricCell(e.Metrics, model.MetricAudio),
					metricCell(e.Metrics, model.MetricFlow),
					metricCell(e.Metrics, model.MetricGuestEnergy),
					metricCell(e.Metrics, model.MetricStructure),
					strings.Join(e.Badges, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{
				alignRight, alignLeft, alignLeft, alignLeft, alignLeft,
				alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft,
			}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultBoardLimit, "Number of entries to show")
	return cmd
}

const defaultBoardLimit = 10

// metricCell formats one metric value, blank when absent.
func metricCell(metrics map[model.Metric]float64, metric model.Metric) string {
	v, ok := metrics[metric]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
