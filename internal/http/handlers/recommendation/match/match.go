// Package match реализует HTTP-обработчик подбора ухода для текущего пользователя.
//
// Handler берёт пользователя из контекста, при необходимости принудительно
// пересобирает подбор и возвращает сохранённый результат в JSON-формате.
package match

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Service описывает интерфейс бизнес-логики подбора.
type Service interface {
	MatchForUser(ctx context.Context, userID int64, forceRebuild bool) (models.RecommendationResult, error)
}

// Handler обрабатывает запросы на подбор ухода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подобрать уход
// @Description Возвращает подбор для текущей версии анкеты. Устаревший подбор пересобирается, force_rebuild пересобирает всегда.
// @Tags Recommendations
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.MatchRequest false "Параметры подбора"
// @Success 200 {object} response.Response "Подбор в поле data.recommendation"
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "У пользователя нет анкеты"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /recommendations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.match"
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

	// Пустое тело равносильно {"force_rebuild": false}.
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	result, err := h.service.MatchForUser(r.Context(), userID, req.ForceRebuild)
	if err != nil {
		log.Error("failed to match recommendation", slog.Int64("user_id", userID), sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("recommendation ready",
		slog.Int64("user_id", userID),
		slog.String("result_id", result.ID),
		slog.Int("products", len(result.ProductIDs)),
		slog.Bool("force_rebuild", req.ForceRebuild),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"recommendation": result,
	}))
}
