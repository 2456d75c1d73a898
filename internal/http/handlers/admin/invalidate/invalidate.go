// Package invalidate реализует административный сброс кэша каталога и правил.
package invalidate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
)

// Service описывает интерфейс сброса кэша.
type Service interface {
	InvalidateCatalog(ctx context.Context) error
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
// @Summary Сбросить кэш каталога и правил
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Кэш сброшен"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нужна роль admin"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /admin/catalog/invalidate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.invalidate"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.InvalidateCatalog(r.Context()); err != nil {
		log.Error("failed to invalidate catalog cache", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("catalog cache invalidated")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"invalidated": true,
	}))
}
