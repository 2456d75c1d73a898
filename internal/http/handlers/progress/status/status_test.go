package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

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

func (m *MockService) Get(ctx context.Context, userID int64) (progress.Status, error) {
	args := m.Called(ctx, userID)
	st, _ := args.Get(0).(progress.Status)
	return st, args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := progress.Status{
		UserID:         42,
		ProfileVersion: 2,
		Summary:        plan.Summarize(models.Progress{CompletedDays: []int{1, 2}}),
	}

	tests := []struct {
		name           string
		userID         int64
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "прогресс получен",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(42)).Return(st, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"completed_days":[1,2],"current_day":3`,
		},
		{
			name:   "профиль не найден",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(42)).Return(progress.Status{}, fmt.Errorf("svc: %w", models.ErrProfileNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"skin profile not found"`,
		},
		{
			name:   "ошибка хранилища",
			userID: 42,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(42)).Return(progress.Status{}, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal service error"`,
		},
		{
			name:           "без авторизации",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
			if tt.userID != 0 {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()

			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
