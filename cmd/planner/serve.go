package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/skincare-planner/internal/app/planner"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			logger.Info("starting skincare-planner", slog.String("env", cfg.Env), slog.String("version", version))
			logger.Debug("loaded config", slog.String("config", cfg.String()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := planner.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("skincare-planner stopped gracefully")
			return nil
		},
	}
}

