// Package complete реализует HTTP-обработчик отметки дня плана выполненным.
//
// Номер дня берётся из URL и проверяется валидатором до обращения к сервису.
package complete

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/services/progress"
)

// Service описывает интерфейс отметки дня.
type Service interface {
	CompleteDay(ctx context.Context, userID int64, day int) (progress.Status, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отметить день плана выполненным
// @Description Повторная отметка того же дня ничего не меняет.
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param day path int true "Номер дня, 1..28"
// @Success 200 {object} response.Response "Прогресс в поле data.progress"
// @Failure 400 {object} response.Response "Номер дня вне диапазона"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "У пользователя нет анкеты"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /progress/days/{day} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.complete"
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

	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		log.Error("failed to decode day from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode day from url"))
		return
	}
	if err := h.validate.Var(day, "min=1,max="+strconv.Itoa(models.PlanDays)); err != nil {
		log.Error("validation failed", slog.Int("day", day), sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	st, err := h.service.CompleteDay(r.Context(), userID, day)
	if err != nil {
		log.Error("failed to complete day", slog.Int64("user_id", userID), slog.Int("day", day), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("day completed", slog.Int64("user_id", userID), slog.Int("day", day), slog.Int("percent", st.Percent))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"progress": st,
	}))
}
