package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

const profileColumns = `id, user_id, version, skin_type, sensitivity_level, acne_level, dehydration_level,
	rosacea_risk, pigmentation_risk, age_group, has_pregnancy, concerns, main_goals,
	excluded_ingredients, diagnoses, created_at`

// GetCurrentProfile возвращает последнюю версию профиля пользователя.
func (s *Storage) GetCurrentProfile(ctx context.Context, userID int64) (*models.SkinProfile, error) {
	const op = "storage.GetCurrentProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `
			  FROM skin_profiles
			  WHERE user_id = $1
			  ORDER BY version DESC
			  LIMIT 1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProfile сохраняет новую версию профиля. Версия и идентификатор назначаются здесь.
func (s *Storage) CreateProfile(ctx context.Context, profile models.SkinProfile) (*models.SkinProfile, error) {
	const op = "storage.CreateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	profile = profile.Normalized()

	args := make([]any, 0, 14)
	for _, set := range [][]string{profile.Concerns, profile.MainGoals, profile.ExcludedIngredients, profile.Diagnoses} {
		arg, err := jsonArg(set)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		args = append(args, arg)
	}

	query := `INSERT INTO skin_profiles (id, user_id, version, skin_type, sensitivity_level, acne_level,
				  dehydration_level, rosacea_risk, pigmentation_risk, age_group, has_pregnancy,
				  concerns, main_goals, excluded_ingredients, diagnoses)
			  VALUES ($1, $2,
				  (SELECT COALESCE(MAX(version), 0) + 1 FROM skin_profiles WHERE user_id = $2),
				  $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING ` + profileColumns
	row := s.DB.QueryRowContext(ctx, query, append([]any{
		uuid.NewString(), profile.UserID, string(profile.SkinType), string(profile.SensitivityLevel),
		profile.AcneLevel, profile.DehydrationLevel, string(profile.RosaceaRisk),
		string(profile.PigmentationRisk), profile.AgeGroup, profile.HasPregnancy,
	}, args...)...)

	created, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func scanProfile(row *sql.Row) (*models.SkinProfile, error) {
	var p models.SkinProfile
	var skinType, sensitivity, rosacea, pigment string
	var concerns, goals, excluded, diagnoses []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Version, &skinType, &sensitivity, &p.AcneLevel,
		&p.DehydrationLevel, &rosacea, &pigment, &p.AgeGroup, &p.HasPregnancy,
		&concerns, &goals, &excluded, &diagnoses, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.SkinType = models.SkinType(skinType)
	p.SensitivityLevel = models.SensitivityLevel(sensitivity)
	p.RosaceaRisk = models.RiskLevel(rosacea)
	p.PigmentationRisk = models.RiskLevel(pigment)

	var err error
	if p.Concerns, err = decodeJSON[string](concerns); err != nil {
		return nil, err
	}
	if p.MainGoals, err = decodeJSON[string](goals); err != nil {
		return nil, err
	}
	if p.ExcludedIngredients, err = decodeJSON[string](excluded); err != nil {
		return nil, err
	}
	if p.Diagnoses, err = decodeJSON[string](diagnoses); err != nil {
		return nil, err
	}
	return &p, nil
}
