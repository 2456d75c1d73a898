package matching

import (
	"io"
	"log/slog"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func oilyAcneProfile() models.SkinProfile {
	return models.SkinProfile{
		ID:               "profile-1",
		UserID:           42,
		Version:          3,
		SkinType:         models.SkinTypeOily,
		SensitivityLevel: models.SensitivityLow,
		AcneLevel:        2,
		RosaceaRisk:      models.RiskNone,
		PigmentationRisk: models.RiskLow,
		AgeGroup:         "18_25",
		Concerns:         []string{"acne", "pores"},
		MainGoals:        []string{"clear_skin", "hydration"},
	}
}

func rule(id string, priority int, conditions string, steps string) models.Rule {
	return models.Rule{
		ID:         id,
		Priority:   priority,
		IsActive:   true,
		Conditions: rules.ParseConditions([]byte(conditions)),
		Steps:      rules.ParseSteps([]byte(steps)),
	}
}

func product(id, category string, opts ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:          id,
		Name:        id,
		Category:    category,
		Published:   true,
		BrandActive: true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func skinTypes(types ...string) func(*models.Product) {
	return func(p *models.Product) { p.SkinTypes = types }
}

func concerns(c ...string) func(*models.Product) {
	return func(p *models.Product) { p.Concerns = c }
}

func actives(a ...string) func(*models.Product) {
	return func(p *models.Product) { p.ActiveIngredients = a }
}

func avoidIf(tags ...string) func(*models.Product) {
	return func(p *models.Product) { p.AvoidIf = tags }
}

func priority(n int) func(*models.Product) {
	return func(p *models.Product) { p.Priority = n }
}

func hero() func(*models.Product) {
	return func(p *models.Product) { p.IsHero = true }
}

func unpublished() func(*models.Product) {
	return func(p *models.Product) { p.Published = false }
}

func brandInactive() func(*models.Product) {
	return func(p *models.Product) { p.BrandActive = false }
}

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
