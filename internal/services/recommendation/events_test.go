package recommendation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skincare-planner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

func TestHandleProfileUpdated_RebuildsStaleResult(t *testing.T) {
	f := newFixture(t)
	f.cacheMisses()
	f.storage(testRules(), testCatalog())
	f.publisher.On("Publish", mock.Anything, rabbitmq.RoutingRecommendationReady, mock.Anything).Return(nil).Once()
	f.repo.On("GetCurrentProfile", mock.Anything, int64(42)).Return(testProfile(), nil).Once()
	f.repo.On("GetExistingResult", mock.Anything, int64(42), "p-1").Return(nil, models.ErrResultNotFound).Once()
	f.repo.On("SaveResult", mock.Anything, mock.Anything).Return(nil, nil).Once()

	err := f.svc.HandleProfileUpdated(context.Background(), []byte(`{"user_id": 42, "version": 2}`))
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestHandleProfileUpdated_Errors(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name       string
		body       string
		setup      func(f *fixture)
		wantReject bool
	}{
		{name: "malformed json", body: `{"user_id":`, wantReject: true},
		{name: "missing user", body: `{"version": 3}`, wantReject: true},
		{
			name: "profile gone",
			body: `{"user_id": 7}`,
			setup: func(f *fixture) {
				f.repo.On("GetCurrentProfile", mock.Anything, int64(7)).Return(nil, models.ErrProfileNotFound).Once()
			},
			wantReject: true,
		},
		{
			name: "storage failure is retried",
			body: `{"user_id": 7}`,
			setup: func(f *fixture) {
				f.repo.On("GetCurrentProfile", mock.Anything, int64(7)).Return(nil, dbErr).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			err := f.svc.HandleProfileUpdated(context.Background(), []byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.wantReject, errors.Is(err, rabbitmq.ErrReject))
			f.repo.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
		})
	}
}
