package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/skincare-planner/internal/app/planner"
	"github.com/magabrotheeeer/skincare-planner/internal/matching"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/plan"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
)

// previewOutput результат офлайн-прогона движка.
type previewOutput struct {
	RuleID         *string                     `json:"rule_id"`
	Fallback       bool                        `json:"fallback"`
	EmptySteps     []string                    `json:"empty_steps,omitempty"`
	Recommendation models.RecommendationResult `json:"recommendation"`
	Plan           models.Plan28               `json:"plan"`
}

func previewCmd() *cobra.Command {
	var profilePath, catalogPath, rulesPath string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run the matching engine offline and print the result and plan as JSON",
		Long: `Preview reads a skin profile and a catalog from JSON files, selects a rule
from the optional YAML rules file and prints the recommendation and the
28-day plan. Nothing is read from or written to storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd.OutOrStdout(), profilePath, catalogPath, rulesPath)
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "", "Skin profile JSON file")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog JSON file {brands, products}")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules YAML file (optional)")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func runPreview(w io.Writer, profilePath, catalogPath, rulesPath string) error {
	const op = "planner.runPreview"

	profile, err := readProfileFile(profilePath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	catalog, err := readCatalogFile(catalogPath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var candidates []models.Rule
	selector, err := planner.NewSelector("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rulesPath != "" {
		file, err := rules.LoadFile(rulesPath)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		candidates = file.Rules
		if file.Fallback != nil {
			if selector, err = matching.NewSelector(*file.Fallback); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	snapshot := catalog.Snapshot()
	assembler := matching.NewAssembler(slog.New(slog.NewTextHandler(io.Discard, nil)), selector)
	assembly := assembler.Assemble(profile, selector.Select(profile, candidates), snapshot)

	out := previewOutput{
		RuleID:         assembly.Result.RuleID,
		Fallback:       assembly.Rule.IsFallback,
		EmptySteps:     assembly.EmptySteps(),
		Recommendation: assembly.Result,
		Plan:           plan.NewBuilder(plan.ProductIndex(snapshot.ByID())).Build(assembly.Result, profile),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
