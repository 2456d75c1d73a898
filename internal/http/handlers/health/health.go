// Package health реализует проверку живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skincare-planner/internal/http/response"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
)

// Check проверка одной зависимости сервиса.
type Check func(ctx context.Context) error

type Handler struct {
	log    *slog.Logger
	checks map[string]Check
}

// New создает Handler. checks проверяются при каждом запросе, ключ попадает в ответ.
func New(log *slog.Logger, checks map[string]Check) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks)+1)
	status["status"] = "ok"
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Error("health check failed", sl.Op(op), slog.String("check", name), sl.Err(err))
			status[name] = "unavailable"
			status["status"] = "degraded"
			continue
		}
		status[name] = "ok"
	}

	if status["status"] != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.OKWithData(status))
}
