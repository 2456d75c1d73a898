package matching

import (
	"log/slog"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Assembly результат сборки подбора с диагностикой по шагам.
type Assembly struct {
	Result models.RecommendationResult
	Rule   SelectedRule
	Steps  []StepResult
}

// EmptySteps названия шагов, для которых в каталоге не нашлось продуктов.
func (a Assembly) EmptySteps() []string {
	var out []string
	for _, s := range a.Steps {
		if s.Empty() {
			out = append(out, s.Step)
		}
	}
	return out
}

// Assembler собирает результат подбора по выбранному правилу.
type Assembler struct {
	log      *slog.Logger
	selector *Selector
}

// NewAssembler создаёт Assembler. selector нужен, чтобы откатиться на резервное правило,
// если победившее правило не дало ни одного продукта.
func NewAssembler(log *slog.Logger, selector *Selector) *Assembler {
	return &Assembler{
		log:      log,
		selector: selector,
	}
}

// Assemble заполняет шаги правила в порядке их объявления и сводит продукты
// в один список без повторов с сохранением порядка первого появления.
func (a *Assembler) Assemble(profile models.SkinProfile, selected SelectedRule, catalog CatalogLookup) Assembly {
	assembly := a.assemble(profile, selected, catalog)
	if len(assembly.Result.ProductIDs) == 0 && !selected.IsFallback && a.selector != nil {
		a.log.Warn("winning rule produced no products, using fallback rule",
			slog.String("rule_id", selected.Rule.ID),
			slog.Int64("user_id", profile.UserID),
		)
		assembly = a.assemble(profile, a.selector.Fallback(), catalog)
	}
	return assembly
}

func (a *Assembler) assemble(profile models.SkinProfile, selected SelectedRule, catalog CatalogLookup) Assembly {
	assembly := Assembly{
		Rule: selected,
		Result: models.RecommendationResult{
			UserID:         profile.UserID,
			ProfileID:      profile.ID,
			ProfileVersion: profile.Version,
			RuleID:         selected.RuleID(),
			ProductIDs:     []string{},
			Steps:          make([]models.StepSelection, 0, len(selected.Rule.Steps)),
		},
	}

	seen := make(map[string]struct{})
	for _, step := range selected.Rule.Steps {
		res := FillStep(step.Name, step.Spec, profile, catalog)
		assembly.Steps = append(assembly.Steps, res)

		selection := models.StepSelection{Step: step.Name, ProductIDs: make([]string, 0, len(res.Products))}
		for _, p := range res.Products {
			selection.ProductIDs = append(selection.ProductIDs, p.ID)
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			assembly.Result.ProductIDs = append(assembly.Result.ProductIDs, p.ID)
		}
		assembly.Result.Steps = append(assembly.Result.Steps, selection)

		switch {
		case res.Empty():
			a.log.Warn("step has no eligible products",
				slog.String("step", step.Name),
				slog.String("rule_id", selected.Rule.ID),
			)
		case res.SkinTypeRelaxed || res.IngredientsRelaxed:
			a.log.Debug("step filters relaxed",
				slog.String("step", step.Name),
				slog.Bool("skin_type_relaxed", res.SkinTypeRelaxed),
				slog.Bool("ingredients_relaxed", res.IngredientsRelaxed),
			)
		}
	}
	return assembly
}
