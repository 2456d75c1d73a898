// Package status реализует HTTP-обработчик получения прогресса по плану.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/services/progress"
)

// Service описывает интерфейс чтения прогресса.
type Service interface {
	Get(ctx context.Context, userID int64) (progress.Status, error)
}

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
// @Summary Получить прогресс по плану
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Прогресс в поле data.progress"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "У пользователя нет анкеты"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /progress [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.status"
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

	st, err := h.service.Get(r.Context(), userID)
	if err != nil {
		log.Error("failed to get progress", slog.Int64("user_id", userID), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"progress": st,
	}))
}
