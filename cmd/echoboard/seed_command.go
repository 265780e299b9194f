package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bymedia/echoboard/internal/adapters/http/api"
	service "github.com/bymedia/echoboard/internal/app"
	"github.com/bymedia/echoboard/internal/domain/model"
)

// seedFeedback is the demo data inserted by the seed command.
var seedFeedback = []api.Feedback{
	{
		Identity: "demo-ep-1",
		Title:    "Scaling a Two-Person Studio",
		Guest:    "Priya Raman",
		Show:     "Indie Audio",
		Release:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Scores: map[model.Metric]float64{
			model.MetricAudio:       5,
			model.MetricFlow:        4,
			model.MetricGuestEnergy: 5,
			model.MetricStructure:   4,
		},
		Comment: "great pacing after the cold open",
	},
	{
		Identity: "demo-ep-2",
		Title:    "Field Recording on a Budget",
		Guest:    "Marcus Webb",
		Show:     "Indie Audio",
		Release:  time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC),
		Scores: map[model.Metric]float64{
			model.MetricAudio:       3,
			model.MetricFlow:        3,
			model.MetricGuestEnergy: 4,
			model.MetricStructure:   3,
		},
		Improvements: map[model.Metric]float64{model.MetricAudio: 15},
		Comment:      "wind noise in the second half",
	},
	{
		Identity: "demo-ep-3",
		Title:    "Interview Prep Deep Dive",
		Guest:    "Sofia Alves",
		Show:     "The Longform Desk",
		Release:  time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		Scores: map[model.Metric]float64{
			model.MetricAudio:       4,
			model.MetricFlow:        5,
			model.MetricGuestEnergy: 3,
			model.MetricStructure:   5,
		},
	},
}

func newSeedCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo episodes and ratings into the data directory",
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

			for _, fb := range seedFeedback {
				if _, err := svc.SubmitFeedback(ctx, fb); err != nil {
					return fmt.Errorf("seed %s: %w", fb.Identity, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d episodes into %s\n", len(seedFeedback), cfg.DataDir)
			return nil
		},
	}
}
