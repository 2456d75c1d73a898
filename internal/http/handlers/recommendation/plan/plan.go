// Package plan реализует HTTP-обработчик получения 28-дневного плана ухода.
package plan

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Service описывает интерфейс построения плана.
type Service interface {
	PlanForUser(ctx context.Context, userID int64) (models.Plan28, error)
}

// Handler возвращает план для текущей версии профиля пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить план на 28 дней
// @Tags Recommendations
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "План в поле data.plan"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "У пользователя нет анкеты"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /plan [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.plan"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	p, err := h.service.PlanForUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to build plan", slog.Int64("user_id", userID), sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Debug("plan built", slog.Int64("user_id", userID), slog.Int("profile_version", p.ProfileVersion))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan": p,
	}))
}
