package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	service "github.com/bymedia/echoboard/internal/app"
)

func newExportCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Recompute the leaderboard from stored data and write the CSV exports",
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

			snap, err := svc.Recompute(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "exported %d entries (run %s)\n", len(snap.Entries), snap.RunID)
			fmt.Fprintf(out, "  %s\n", filepath.Join(cfg.DataDir, "leaderboard.csv"))
			fmt.Fprintf(out, "  %s\n", filepath.Join(cfg.DataDir, "weekly_summary.csv"))
			return nil
		},
	}
}
