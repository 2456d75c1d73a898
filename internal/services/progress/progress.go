// Package progress отмечает выполненные дни 28-дневного плана для текущей версии профиля.
package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/plan"
)

// Repository хранилище прогресса.
type Repository interface {
	GetCurrentProfile(ctx context.Context, userID int64) (*models.SkinProfile, error)
	// GetProgress возвращает прогресс для версии профиля. Отсутствие записи даёт пустой прогресс.
	GetProgress(ctx context.Context, userID int64, profileVersion int) (models.Progress, error)
	// UpdateProgress атомарно применяет fn к прогрессу версии профиля и сохраняет результат.
	UpdateProgress(ctx context.Context, userID int64, profileVersion int,
		fn func(models.Progress) (models.Progress, error)) (models.Progress, error)
}

// Status прогресс пользователя по плану текущей версии профиля.
type Status struct {
	UserID         int64 `json:"user_id"`
	ProfileVersion int   `json:"profile_version"`
	plan.Summary
}

// Service сервис прогресса.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает сервис прогресса.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Get возвращает прогресс пользователя.
func (s *Service) Get(ctx context.Context, userID int64) (Status, error) {
	const op = "services.progress.Get"
	profile, err := s.repo.GetCurrentProfile(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.repo.GetProgress(ctx, userID, profile.Version)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	return statusOf(userID, profile.Version, p), nil
}

// CompleteDay отмечает день выполненным. Номер дня проверяется до обращения к хранилищу.
func (s *Service) CompleteDay(ctx context.Context, userID int64, day int) (Status, error) {
	const op = "services.progress.CompleteDay"
	if err := plan.ValidateDay(day); err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	profile, err := s.repo.GetCurrentProfile(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.UpdateProgress(ctx, userID, profile.Version, func(current models.Progress) (models.Progress, error) {
		current.UserID = userID
		current.ProfileVersion = profile.Version
		return plan.Complete(current, day)
	})
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	status := statusOf(userID, profile.Version, p)
	s.log.Info("plan day completed",
		slog.Int64("user_id", userID),
		slog.Int("day", day),
		slog.Int("percent", status.Percent),
	)
	return status, nil
}

func statusOf(userID int64, version int, p models.Progress) Status {
	return Status{
		UserID:         userID,
		ProfileVersion: version,
		Summary:        plan.Summarize(p),
	}
}
