// Package models содержит доменные структуры движка рекомендаций:
// профиль кожи, продукт каталога, правило подбора, результат подбора
// и 28-дневный план ухода.
package models

import (
	"strings"
	"time"
)

// SkinType тип кожи пользователя.
type SkinType string

const (
	SkinTypeDry             SkinType = "dry"
	SkinTypeOily            SkinType = "oily"
	SkinTypeCombinationDry  SkinType = "combination_dry"
	SkinTypeCombinationOily SkinType = "combination_oily"
	SkinTypeNormal          SkinType = "normal"
)

// Valid сообщает, относится ли тип кожи к поддерживаемым значениям.
func (t SkinType) Valid() bool {
	switch t {
	case SkinTypeDry, SkinTypeOily, SkinTypeCombinationDry, SkinTypeCombinationOily, SkinTypeNormal:
		return true
	}
	return false
}

// SensitivityLevel уровень чувствительности кожи.
type SensitivityLevel string

const (
	SensitivityLow      SensitivityLevel = "low"
	SensitivityMedium   SensitivityLevel = "medium"
	SensitivityHigh     SensitivityLevel = "high"
	SensitivityVeryHigh SensitivityLevel = "very_high"
)

// Rank возвращает порядковый номер уровня (low=0 … very_high=3) или -1 для неизвестного значения.
func (l SensitivityLevel) Rank() int {
	switch l {
	case SensitivityLow:
		return 0
	case SensitivityMedium:
		return 1
	case SensitivityHigh:
		return 2
	case SensitivityVeryHigh:
		return 3
	}
	return -1
}

// IsHigh true для high и very_high.
func (l SensitivityLevel) IsHigh() bool {
	return l == SensitivityHigh || l == SensitivityVeryHigh
}

// RiskLevel уровень риска (розацеа, пигментация).
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank возвращает порядковый номер уровня риска (none=0 … high=3) или -1.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return -1
}

// Теги противопоказаний, выводимые из ответов анкеты.
const (
	ContraPregnancy     = "pregnancy"
	ContraRosacea       = "rosacea"
	ContraVerySensitive = "very_sensitive"
)

// SkinProfile неизменяемый снимок состояния кожи пользователя.
// Каждое прохождение анкеты создаёт новую версию, существующие версии не меняются.
type SkinProfile struct {
	ID                  string           `json:"id"`
	UserID              int64            `json:"user_id"`
	Version             int              `json:"version"`
	SkinType            SkinType         `json:"skin_type"`
	SensitivityLevel    SensitivityLevel `json:"sensitivity_level"`
	AcneLevel           int              `json:"acne_level"`
	DehydrationLevel    int              `json:"dehydration_level"`
	RosaceaRisk         RiskLevel        `json:"rosacea_risk"`
	PigmentationRisk    RiskLevel        `json:"pigmentation_risk"`
	AgeGroup            string           `json:"age_group"`
	HasPregnancy        bool             `json:"has_pregnancy"`
	Concerns            []string         `json:"concerns"`
	MainGoals           []string         `json:"main_goals"`
	ExcludedIngredients []string         `json:"excluded_ingredients"`
	Diagnoses           []string         `json:"diagnoses"`
	CreatedAt           time.Time        `json:"created_at"`
}

// PrimaryGoal первая цель из списка целей пользователя.
func (p SkinProfile) PrimaryGoal() (string, bool) {
	if len(p.MainGoals) == 0 {
		return "", false
	}
	goal := Normalize(p.MainGoals[0])
	return goal, goal != ""
}

// ContraindicationTags возвращает отсортированное множество тегов противопоказаний.
func (p SkinProfile) ContraindicationTags() []string {
	tags := append([]string{}, p.Diagnoses...)
	if p.HasPregnancy {
		tags = append(tags, ContraPregnancy)
	}
	if p.RosaceaRisk == RiskMedium || p.RosaceaRisk == RiskHigh {
		tags = append(tags, ContraRosacea)
	}
	if p.SensitivityLevel == SensitivityVeryHigh {
		tags = append(tags, ContraVerySensitive)
	}
	return NormalizeSet(tags)
}

// Normalized возвращает копию профиля с приведёнными к канону перечислениями и множествами.
func (p SkinProfile) Normalized() SkinProfile {
	p.SkinType = SkinType(Normalize(string(p.SkinType)))
	p.SensitivityLevel = SensitivityLevel(Normalize(string(p.SensitivityLevel)))
	p.RosaceaRisk = RiskLevel(Normalize(string(p.RosaceaRisk)))
	p.PigmentationRisk = RiskLevel(Normalize(string(p.PigmentationRisk)))
	p.AgeGroup = Normalize(p.AgeGroup)
	p.Concerns = NormalizeSet(p.Concerns)
	p.ExcludedIngredients = NormalizeSet(p.ExcludedIngredients)
	p.Diagnoses = NormalizeSet(p.Diagnoses)
	goals := make([]string, 0, len(p.MainGoals))
	for _, g := range p.MainGoals {
		if n := Normalize(g); n != "" {
			goals = append(goals, n)
		}
	}
	p.MainGoals = goals
	return p
}

// Normalize приводит токен к канону: нижний регистр, пробелы и дефисы заменяются на "_".
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, s)
}
