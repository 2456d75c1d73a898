// Package planner собирает HTTP-сервис планировщика ухода: маршруты, зависимости и жизненный цикл.
package planner

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/skincare-planner/internal/docs"

	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/admin/invalidate"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/health"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/progress/complete"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/progress/status"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/recommendation/match"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/recommendation/plan"
	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/jwt"
	"github.com/magabrotheeeer/skincare-planner/internal/metrics"
)

// RecommendationService операции подбора, доступные через HTTP.
type RecommendationService interface {
	match.Service
	plan.Service
	invalidate.Service
}

// ProgressService операции прогресса, доступные через HTTP.
type ProgressService interface {
	status.Service
	complete.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Recommendations RecommendationService
	Progress        ProgressService
	Tokens          middlewarectx.TokenParser
	HealthChecks    map[string]health.Check
	RateLimit       float64
	RateBurst       int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/health", health.New(logger, deps.HealthChecks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, deps.RateLimit, deps.RateBurst))

		r.Post("/recommendations", match.New(logger, deps.Recommendations).ServeHTTP)
		r.Get("/plan", plan.New(logger, deps.Recommendations).ServeHTTP)
		r.Get("/progress", status.New(logger, deps.Progress).ServeHTTP)
		r.Post("/progress/days/{day}", complete.New(logger, deps.Progress).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(logger, jwt.RoleAdmin))
			r.Post("/admin/catalog/invalidate", invalidate.New(logger, deps.Recommendations).ServeHTTP)
		})
	})
}
