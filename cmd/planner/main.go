// Command planner запускает сервис подбора ухода и служебные команды к нему.
//
// @title           Skincare Planner API
// @version         1.0
// @description     Подбор ухода по анкете кожи и 28-дневный план применения.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/skincare-planner/internal/config"
)

var version = "0.1.0"

var configPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "Skincare recommendation matching and 28-day plan service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"Path to YAML config (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedRulesCmd(),
		seedCatalogCmd(),
		importProfileCmd(),
		toggleRuleCmd(),
		previewCmd(),
		tokenCmd(),
	)
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == "prod" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
