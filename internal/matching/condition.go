// Package matching реализует подбор ухода по профилю кожи: проверку условий правил,
// выбор правила, заполнение шагов продуктами и сборку результата.
//
// Все функции пакета чистые: данные каталога приходят через интерфейс CatalogLookup,
// хранилище и кеш остаются на стороне вызывающего кода.
package matching

import (
	"strconv"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
)

// fieldValue значение поля профиля, к которому применяется условие.
type fieldValue struct {
	set     []string
	number  float64
	numeric bool
	boolean bool
	isBool  bool
}

// Matches проверяет, выполняет ли профиль все условия правила.
// Вторым значением возвращается специфичность правила: число ключей в условиях.
func Matches(profile models.SkinProfile, conds []models.Condition) (bool, int) {
	specificity := len(conds)
	for _, c := range conds {
		if !matchCondition(profile, c) {
			return false, specificity
		}
	}
	return true, specificity
}

func matchCondition(profile models.SkinProfile, c models.Condition) bool {
	value, ok := lookup(profile, c.Key)
	if !ok {
		return false
	}

	switch c.Kind {
	case models.ConditionSet:
		return matchSet(value, c.Values)
	case models.ConditionNumeric:
		if !value.numeric || len(c.Bounds) == 0 {
			return false
		}
		for _, b := range c.Bounds {
			if !compare(value.number, b) {
				return false
			}
		}
		return true
	case models.ConditionBool:
		return value.isBool && value.boolean == c.Bool
	default:
		return false
	}
}

func matchSet(value fieldValue, allowed []string) bool {
	switch {
	case value.isBool:
		return models.Contains(allowed, strconv.FormatBool(value.boolean))
	case len(value.set) > 0:
		return models.Intersects(value.set, allowed)
	default:
		return false
	}
}

func compare(actual float64, b models.Bound) bool {
	switch b.Op {
	case models.OpGTE:
		return actual >= b.Value
	case models.OpLTE:
		return actual <= b.Value
	case models.OpGT:
		return actual > b.Value
	case models.OpLT:
		return actual < b.Value
	case models.OpEQ:
		return actual == b.Value
	default:
		return false
	}
}

// lookup извлекает значение поля профиля по каноническому ключу.
// Пустые и неизвестные поля не найдены: условие на них не выполняется.
func lookup(p models.SkinProfile, key string) (fieldValue, bool) {
	switch key {
	case rules.KeySkinType:
		return enumValue(string(p.SkinType), -1)
	case rules.KeySensitivityLevel:
		return enumValue(string(p.SensitivityLevel), p.SensitivityLevel.Rank())
	case rules.KeyRosaceaRisk:
		return enumValue(string(p.RosaceaRisk), p.RosaceaRisk.Rank())
	case rules.KeyPigmentationRisk:
		return enumValue(string(p.PigmentationRisk), p.PigmentationRisk.Rank())
	case rules.KeyAgeGroup:
		return enumValue(p.AgeGroup, -1)
	case rules.KeyAcneLevel:
		return numberValue(p.AcneLevel), true
	case rules.KeyDehydrationLevel:
		return numberValue(p.DehydrationLevel), true
	case rules.KeyHasPregnancy:
		return fieldValue{boolean: p.HasPregnancy, isBool: true}, true
	case rules.KeyConcerns:
		return setValue(p.Concerns)
	case rules.KeyMainGoals:
		return setValue(p.MainGoals)
	case rules.KeyPrimaryGoal:
		goal, ok := p.PrimaryGoal()
		if !ok {
			return fieldValue{}, false
		}
		return fieldValue{set: []string{goal}}, true
	default:
		return fieldValue{}, false
	}
}

func enumValue(raw string, rank int) (fieldValue, bool) {
	n := models.Normalize(raw)
	if n == "" {
		return fieldValue{}, false
	}
	v := fieldValue{set: []string{n}}
	if rank >= 0 {
		v.number = float64(rank)
		v.numeric = true
	}
	return v, true
}

func numberValue(n int) fieldValue {
	return fieldValue{
		set:     []string{rules.FormatNumber(float64(n))},
		number:  float64(n),
		numeric: true,
	}
}

func setValue(items []string) (fieldValue, bool) {
	set := models.NormalizeSet(items)
	if len(set) == 0 {
		return fieldValue{}, false
	}
	return fieldValue{set: set}, true
}
