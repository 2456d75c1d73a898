// Package metrics коллекторы prometheus движка подбора и HTTP-слоя.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы подбора.
const (
	OutcomeCached   = "cached"
	OutcomeRule     = "rule"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	// MatchesTotal число подборов по исходу.
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skincare_matches_total",
			Help: "Total number of recommendation matches by outcome",
		},
		[]string{"outcome"},
	)

	// MatchDuration длительность сборки нового подбора.
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skincare_match_duration_seconds",
			Help:    "Recommendation assembly latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"outcome"},
	)

	// EmptyStepsTotal шаги правил, для которых не нашлось ни одного продукта.
	EmptyStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skincare_empty_steps_total",
			Help: "Total number of rule steps filled with no products",
		},
		[]string{"step"},
	)

	// CacheLookups обращения к кэшу снимков по результату.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skincare_cache_lookups_total",
			Help: "Snapshot cache lookups by key and result",
		},
		[]string{"key", "result"},
	)

	// APILatency длительность HTTP-запросов.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skincare_api_request_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// ObserveMatch учитывает один подбор.
func ObserveMatch(outcome string, started time.Time) {
	MatchesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		MatchDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}
}

// ObserveEmptySteps учитывает пустые шаги подбора.
func ObserveEmptySteps(steps []string) {
	for _, s := range steps {
		EmptyStepsTotal.WithLabelValues(s).Inc()
	}
}

// ObserveCache учитывает попадание или промах кэша по ключу.
func ObserveCache(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(key, result).Inc()
}

// Middleware измеряет латентность запросов. Endpoint берется из шаблона маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		APILatency.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
