package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/skincare-planner/internal/config"
	"github.com/magabrotheeeer/skincare-planner/internal/migrations"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
	"github.com/magabrotheeeer/skincare-planner/internal/storage/repository"
)

// withStorage загружает конфиг, открывает хранилище и закрывает его после fn.
func withStorage(ctx context.Context, fn func(*config.Config, *slog.Logger, *repository.Storage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(cfg, logger, db)
}

func migrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd.Context(), func(cfg *config.Config, log *slog.Logger, db *repository.Storage) error {
				if down {
					if err := migrations.Down(db.DB, cfg.MigrationsPath); err != nil {
						return err
					}
					log.Info("migrations rolled back", slog.String("path", cfg.MigrationsPath))
					return nil
				}
				if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
					return err
				}
				log.Info("migrations applied", slog.String("path", cfg.MigrationsPath))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Roll back all migrations")
	return cmd
}

func seedRulesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-rules",
		Short: "Load rules from a YAML file and upsert them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := rules.LoadFile(file)
			if err != nil {
				return err
			}
			return withStorage(cmd.Context(), func(_ *config.Config, log *slog.Logger, db *repository.Storage) error {
				for _, r := range parsed.Rules {
					if err := db.UpsertRule(cmd.Context(), r); err != nil {
						return fmt.Errorf("rule %q: %w", r.ID, err)
					}
				}
				log.Info("rules seeded", slog.String("file", file), slog.Int("count", len(parsed.Rules)))
				if parsed.Fallback != nil {
					log.Warn("fallback section is not stored, pass the file as engine.fallback_rule_path",
						slog.String("fallback_id", parsed.Fallback.ID))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Rules YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seedCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load brands and products from a JSON file and upsert them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := readCatalogFile(file)
			if err != nil {
				return err
			}
			return withStorage(cmd.Context(), func(_ *config.Config, log *slog.Logger, db *repository.Storage) error {
				for _, b := range catalog.Brands {
					if err := db.UpsertBrand(cmd.Context(), b.toBrand()); err != nil {
						return fmt.Errorf("brand %q: %w", b.ID, err)
					}
				}
				for _, p := range catalog.Products {
					if err := db.UpsertProduct(cmd.Context(), p); err != nil {
						return fmt.Errorf("product %q: %w", p.ID, err)
					}
				}
				log.Info("catalog seeded",
					slog.Int("brands", len(catalog.Brands)),
					slog.Int("products", len(catalog.Products)),
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog JSON file {brands, products}")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importProfileCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-profile",
		Short: "Store a skin profile from a JSON file as the user's next profile version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := readProfileFile(file)
			if err != nil {
				return err
			}
			if profile.UserID <= 0 {
				return fmt.Errorf("profile in %s has no user_id", file)
			}
			return withStorage(cmd.Context(), func(_ *config.Config, log *slog.Logger, db *repository.Storage) error {
				created, err := db.CreateProfile(cmd.Context(), profile)
				if err != nil {
					return err
				}
				log.Info("profile imported",
					slog.Int64("user_id", created.UserID),
					slog.String("profile_id", created.ID),
					slog.Int("version", created.Version),
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Skin profile JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func toggleRuleCmd() *cobra.Command {
	var id string
	var active bool
	cmd := &cobra.Command{
		Use:   "toggle-rule",
		Short: "Activate or deactivate a stored rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd.Context(), func(_ *config.Config, log *slog.Logger, db *repository.Storage) error {
				found, err := db.SetRuleActive(cmd.Context(), id, active)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("rule %q not found", id)
				}
				log.Info("rule updated", slog.String("rule_id", id), slog.Bool("active", active))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Rule id")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the rule takes part in matching")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
