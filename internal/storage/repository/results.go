package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// GetExistingResult возвращает сохранённый подбор для пары (userID, profileID).
func (s *Storage) GetExistingResult(ctx context.Context, userID int64, profileID string) (*models.RecommendationResult, error) {
	const op = "storage.GetExistingResult"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, profile_id, profile_version, rule_id, product_ids, steps, created_at
			  FROM recommendation_results
			  WHERE user_id = $1 AND profile_id = $2`
	var (
		r          models.RecommendationResult
		ruleID     sql.NullString
		productIDs []byte
		steps      []byte
	)
	err := s.DB.QueryRowContext(ctx, query, userID, profileID).Scan(&r.ID, &r.UserID, &r.ProfileID,
		&r.ProfileVersion, &ruleID, &productIDs, &steps, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrResultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ruleID.Valid {
		r.RuleID = &ruleID.String
	}
	if r.ProductIDs, err = decodeJSON[string](productIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if r.Steps, err = decodeJSON[models.StepSelection](steps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// SaveResult сохраняет подбор, перезаписывая существующий для той же пары (userID, profileID).
// Идентификатор строки при перезаписи не меняется. Запись с версией профиля ниже сохранённой
// отклоняется с models.ErrStaleResult.
func (s *Storage) SaveResult(ctx context.Context, result models.RecommendationResult) (models.RecommendationResult, error) {
	const op = "storage.SaveResult"
	if err := checkCtx(ctx, op); err != nil {
		return models.RecommendationResult{}, err
	}

	productIDs, err := jsonArg(result.ProductIDs)
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	steps := result.Steps
	if steps == nil {
		steps = []models.StepSelection{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	var ruleID sql.NullString
	if result.RuleID != nil {
		ruleID = sql.NullString{String: *result.RuleID, Valid: true}
	}

	query := `INSERT INTO recommendation_results
				  (id, user_id, profile_id, profile_version, rule_id, product_ids, steps, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (user_id, profile_id) DO UPDATE SET
				  profile_version = EXCLUDED.profile_version, rule_id = EXCLUDED.rule_id,
				  product_ids = EXCLUDED.product_ids, steps = EXCLUDED.steps, created_at = EXCLUDED.created_at
			  WHERE recommendation_results.profile_version <= EXCLUDED.profile_version
			  RETURNING id, created_at`
	err = s.DB.QueryRowContext(ctx, query, result.ID, result.UserID, result.ProfileID, result.ProfileVersion,
		ruleID, productIDs, string(stepsJSON), result.CreatedAt).Scan(&result.ID, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, models.ErrStaleResult)
	}
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	result.ProductIDs, _ = decodeJSON[string]([]byte(productIDs))
	result.Steps = steps
	return result, nil
}
