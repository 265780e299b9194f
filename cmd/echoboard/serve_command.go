package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bymedia/echoboard/internal/adapters/http/api"
	service "github.com/bymedia/echoboard/internal/app"
	"github.com/bymedia/echoboard/internal/poll"
	"github.com/bymedia/echoboard/pkg/logger"
)

// HTTP server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background poller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, *configFlag)
			if err != nil {
				return err
			}
			log := logger.Named("serve")

			svc := service.New(cfg)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			mux := http.NewServeMux()
			api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           mux,
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "http server listening", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			poller := poll.New(svc,
				poll.WithInterval(time.Duration(cfg.PollIntervalSeconds)*time.Second),
			)
			go func() {
				if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error(ctx, "poller stopped", logger.Error(err))
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info(context.Background(), "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		},
	}
}
