package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Практически нулевая скорость пополнения: после burst все запросы отклоняются.
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 3)(next)

	var codes []int
	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)
}

func TestRateLimitMiddleware_LimitersAreIndependent(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	first := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 1)(next)
	second := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 1)(next)

	rec := httptest.NewRecorder()
	first.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	second.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
