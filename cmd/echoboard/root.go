package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bymedia/echoboard/internal/config"
	"github.com/bymedia/echoboard/pkg/logger"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "echoboard",
		Short:         "Podcast episode leaderboard engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newPollCommand(&configFlag))
	rootCmd.AddCommand(newBoardCommand(&configFlag))
	rootCmd.AddCommand(newExportCommand(&configFlag))
	rootCmd.AddCommand(newSeedCommand(&configFlag))

	return rootCmd
}

// loadConfig layers defaults, the optional config file and the environment,
// then initializes the global logger at the configured level.
func loadConfig(ctx context.Context, configFlag string) (*config.Config, error) {
	if configFlag != "" {
		if err := os.Setenv("ECHOBOARD_CONFIG", configFlag); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}
