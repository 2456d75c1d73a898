package models

import "time"

// StepSelection продукты, подобранные для одного шага, в порядке подбора.
type StepSelection struct {
	Step       string   `json:"step"`
	ProductIDs []string `json:"product_ids"`
}

// RecommendationResult результат подбора для версии профиля.
// RuleID == nil означает, что применено резервное правило.
type RecommendationResult struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id"`
	ProfileID      string          `json:"profile_id"`
	ProfileVersion int             `json:"profile_version"`
	RuleID         *string         `json:"rule_id"`
	ProductIDs     []string        `json:"product_ids"`
	Steps          []StepSelection `json:"steps"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StepOf возвращает первый шаг, в котором встретился продукт.
func (r RecommendationResult) StepOf(productID string) (string, bool) {
	for _, s := range r.Steps {
		for _, id := range s.ProductIDs {
			if id == productID {
				return s.Step, true
			}
		}
	}
	return "", false
}

// MatchRequest тело запроса на подбор.
type MatchRequest struct {
	ForceRebuild bool `json:"force_rebuild"`
}
