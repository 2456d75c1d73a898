// Package rules разбирает слабо типизированные описания правил (JSON из хранилища,
// YAML из файлов) в строгие структуры models.Condition и models.StepSpec.
//
// Разбор никогда не завершается паникой или ошибкой из-за содержимого условий:
// всё, что не удалось понять, превращается в невыполнимое условие.
package rules

import (
	"strings"
	"unicode"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Канонические ключи условий.
const (
	KeySkinType         = "skin_type"
	KeySensitivityLevel = "sensitivity_level"
	KeyAcneLevel        = "acne_level"
	KeyDehydrationLevel = "dehydration_level"
	KeyRosaceaRisk      = "rosacea_risk"
	KeyPigmentationRisk = "pigmentation_risk"
	KeyAgeGroup         = "age_group"
	KeyHasPregnancy     = "has_pregnancy"
	KeyConcerns         = "concerns"
	KeyMainGoals        = "main_goals"
	KeyPrimaryGoal      = "primary_goal"
)

var keyAliases = map[string]string{
	"sensitivity": KeySensitivityLevel,
	"acne":        KeyAcneLevel,
	"dehydration": KeyDehydrationLevel,
	"age":         KeyAgeGroup,
	"pregnancy":   KeyHasPregnancy,
	"is_pregnant": KeyHasPregnancy,
	"concern":     KeyConcerns,
	"goals":       KeyMainGoals,
	"goal":        KeyPrimaryGoal,
	"main_goal":   KeyPrimaryGoal,
}

// CanonicalKey приводит ключ к snake_case: skinType, SkinType и skin_type дают skin_type.
func CanonicalKey(key string) string {
	var b strings.Builder
	prevUnderscore := true
	for _, r := range strings.TrimSpace(key) {
		if unicode.IsUpper(r) {
			if !prevUnderscore {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
			continue
		}
		b.WriteRune(r)
		prevUnderscore = r == '_' || r == ' ' || r == '-'
	}
	canonical := models.Normalize(b.String())
	if alias, ok := keyAliases[canonical]; ok {
		return alias
	}
	return canonical
}
