package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// GetProgress возвращает прогресс для версии профиля. Если записи нет, прогресс пустой.
func (s *Storage) GetProgress(ctx context.Context, userID int64, profileVersion int) (models.Progress, error) {
	const op = "storage.GetProgress"
	if err := checkCtx(ctx, op); err != nil {
		return models.Progress{}, err
	}

	p := models.Progress{UserID: userID, ProfileVersion: profileVersion, CompletedDays: []int{}}
	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT completed_days FROM plan_progress WHERE user_id = $1 AND profile_version = $2`,
		userID, profileVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	if p.CompletedDays, err = decodeJSON[int](raw); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdateProgress в транзакции блокирует строку прогресса, применяет fn и сохраняет результат.
func (s *Storage) UpdateProgress(ctx context.Context, userID int64, profileVersion int,
	fn func(models.Progress) (models.Progress, error)) (models.Progress, error) {
	const op = "storage.UpdateProgress"
	if err := checkCtx(ctx, op); err != nil {
		return models.Progress{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_progress (user_id, profile_version) VALUES ($1, $2)
		 ON CONFLICT (user_id, profile_version) DO NOTHING`, userID, profileVersion); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}

	var raw []byte
	if err := tx.QueryRowContext(ctx,
		`SELECT completed_days FROM plan_progress WHERE user_id = $1 AND profile_version = $2 FOR UPDATE`,
		userID, profileVersion).Scan(&raw); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	current := models.Progress{UserID: userID, ProfileVersion: profileVersion}
	if current.CompletedDays, err = decodeJSON[int](raw); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := fn(current)
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	days, err := jsonArg(updated.CompletedDays)
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE plan_progress SET completed_days = $3, updated_at = now()
		 WHERE user_id = $1 AND profile_version = $2`, userID, profileVersion, days); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	updated.UserID = userID
	updated.ProfileVersion = profileVersion
	return updated, nil
}
