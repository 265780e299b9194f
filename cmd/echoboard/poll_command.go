package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/bymedia/echoboard/internal/app"
)

func newPollCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run a single fetch-score-recompute cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, *configFlag)
			if err != nil {
				return err
			}

			svc := service.New(cfg)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			summary, err := svc.RunOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"run %s: fetched %d, new %d, scored %d, %d leaderboard entries\n",
				summary.RunID, summary.Fetched, summary.NewEpisodes, summary.Scored, summary.Entries)
			return nil
		},
	}
}
