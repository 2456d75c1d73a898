package complete

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/skincare-planner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/plan"
	"github.com/magabrotheeeer/skincare-planner/internal/services/progress"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CompleteDay(ctx context.Context, userID int64, day int) (progress.Status, error) {
	args := m.Called(ctx, userID, day)
	st, _ := args.Get(0).(progress.Status)
	return st, args.Error(1)
}

func TestCompleteHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := progress.Status{
		UserID:         42,
		ProfileVersion: 1,
		Summary:        plan.Summarize(models.Progress{CompletedDays: []int{1, 2, 3, 4, 5, 6, 7}}),
	}

	tests := []struct {
		name           string
		day            string
		userID         int64
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "день отмечен",
			day:    "7",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("CompleteDay", mock.Anything, int64(42), 7).Return(done, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"phase":"active","percent":25`,
		},
		{
			name:           "день не число",
			day:            "seven",
			userID:         42,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"failed to decode day from url"`,
		},
		{
			name:           "день ноль",
			day:            "0",
			userID:         42,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field value must be at least 1"`,
		},
		{
			name:           "день за пределами плана",
			day:            "29",
			userID:         42,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field value must be at most 28"`,
		},
		{
			name:   "сервис отклонил день",
			day:    "28",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("CompleteDay", mock.Anything, int64(42), 28).Return(progress.Status{}, models.ErrInvalidDay)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"day must be between 1 and 28"`,
		},
		{
			name:   "ошибка хранилища",
			day:    "3",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("CompleteDay", mock.Anything, int64(42), 3).Return(progress.Status{}, errors.New("tx aborted"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal service error"`,
		},
		{
			name:           "без авторизации",
			day:            "1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/progress/days/"+tt.day, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("day", tt.day)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userID != 0 {
				ctx = context.WithValue(ctx, middlewarectx.UserID, tt.userID)
			}
			w := httptest.NewRecorder()

			New(logger, mockService).ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
