package matching

import (
	"fmt"
	"sort"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// FallbackRuleID идентификатор встроенного резервного правила.
const FallbackRuleID = "fallback"

// DefaultFallbackRule встроенное универсальное правило: очищение, увлажнение, SPF.
func DefaultFallbackRule() models.Rule {
	return models.Rule{
		ID:       FallbackRuleID,
		Name:     "Базовый уход",
		IsActive: true,
		Steps: []models.Step{
			{Name: models.StepCleanser, Spec: models.StepSpec{Categories: []string{"cleanser"}, MaxItems: 1}},
			{Name: models.StepMoisturizer, Spec: models.StepSpec{Categories: []string{"moisturizer"}, MaxItems: 1}},
			{Name: models.StepSPF, Spec: models.StepSpec{Categories: []string{"spf", "sunscreen"}, MaxItems: 1}},
		},
	}
}

// ValidateFallback проверяет, что резервное правило покрывает все базовые шаги.
func ValidateFallback(rule models.Rule) error {
	for _, name := range models.CoreSteps {
		step, ok := rule.StepByName(name)
		if !ok || len(step.Spec.Categories) == 0 {
			return fmt.Errorf("%w: missing step %q", models.ErrInvalidFallback, name)
		}
	}
	return nil
}

// SelectedRule победившее правило.
type SelectedRule struct {
	Rule        models.Rule
	Specificity int
	IsFallback  bool
}

// RuleID идентификатор для сохранения в результате: nil для резервного правила.
func (s SelectedRule) RuleID() *string {
	if s.IsFallback {
		return nil
	}
	id := s.Rule.ID
	return &id
}

// Selector выбирает правило для профиля.
type Selector struct {
	fallback models.Rule
}

// NewSelector создаёт Selector с заданным резервным правилом.
// Некорректное резервное правило считается ошибкой конфигурации при старте.
func NewSelector(fallback models.Rule) (*Selector, error) {
	const op = "matching.NewSelector"
	if err := ValidateFallback(fallback); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fallback.IsActive = true
	return &Selector{fallback: fallback}, nil
}

// Fallback возвращает резервное правило в виде SelectedRule.
func (s *Selector) Fallback() SelectedRule {
	return SelectedRule{Rule: s.fallback, IsFallback: true}
}

// Select ранжирует активные подошедшие правила по (priority DESC, specificity DESC, id ASC)
// и возвращает победителя. Если не подошло ни одно, возвращается резервное правило.
func (s *Selector) Select(profile models.SkinProfile, candidates []models.Rule) SelectedRule {
	matched := make([]SelectedRule, 0, len(candidates))
	for _, rule := range candidates {
		if !rule.IsActive {
			continue
		}
		ok, specificity := Matches(profile, rule.Conditions)
		if !ok {
			continue
		}
		matched = append(matched, SelectedRule{Rule: rule, Specificity: specificity})
	}
	if len(matched) == 0 {
		return s.Fallback()
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Rule.Priority != b.Rule.Priority {
			return a.Rule.Priority > b.Rule.Priority
		}
		if a.Specificity != b.Specificity {
			return a.Specificity > b.Specificity
		}
		return a.Rule.ID < b.Rule.ID
	})
	return matched[0]
}
