package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/skincare-planner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// ProfileUpdatedEvent уведомление о сохранённой новой версии анкеты.
type ProfileUpdatedEvent struct {
	UserID  int64 `json:"user_id"`
	Version int   `json:"version,omitempty"`
}

// HandleProfileUpdated пересобирает подбор после изменения анкеты, чтобы он был готов к запросу.
// Сообщения без user_id и для пользователей без анкеты отбрасываются.
func (s *Service) HandleProfileUpdated(ctx context.Context, body []byte) error {
	const op = "services.recommendation.HandleProfileUpdated"
	var event ProfileUpdatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if event.UserID <= 0 {
		return fmt.Errorf("%s: %w: user_id is required", op, rabbitmq.ErrReject)
	}

	result, err := s.MatchForUser(ctx, event.UserID, false)
	if errors.Is(err, models.ErrProfileNotFound) {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("recommendation refreshed on profile update",
		slog.Int64("user_id", event.UserID),
		slog.Int("profile_version", result.ProfileVersion),
	)
	return nil
}
