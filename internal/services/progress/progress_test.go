package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetCurrentProfile(ctx context.Context, userID int64) (*models.SkinProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SkinProfile), args.Error(1)
}

func (m *RepoMock) GetProgress(ctx context.Context, userID int64, profileVersion int) (models.Progress, error) {
	args := m.Called(ctx, userID, profileVersion)
	return args.Get(0).(models.Progress), args.Error(1)
}

// UpdateProgress применяет fn к прогрессу, заданному в Return.
func (m *RepoMock) UpdateProgress(ctx context.Context, userID int64, profileVersion int,
	fn func(models.Progress) (models.Progress, error)) (models.Progress, error) {
	args := m.Called(ctx, userID, profileVersion)
	if err := args.Error(1); err != nil {
		return models.Progress{}, err
	}
	return fn(args.Get(0).(models.Progress))
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestGet(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetCurrentProfile", mock.Anything, int64(5)).Return(&models.SkinProfile{UserID: 5, Version: 3}, nil).Once()
	repo.On("GetProgress", mock.Anything, int64(5), 3).
		Return(models.Progress{UserID: 5, ProfileVersion: 3, CompletedDays: []int{1, 2, 3, 4, 5, 6, 7}}, nil).Once()

	status, err := NewService(repo, newNoopLogger()).Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), status.UserID)
	assert.Equal(t, 3, status.ProfileVersion)
	assert.Equal(t, 8, status.CurrentDay)
	assert.Equal(t, models.PhaseActive, status.Phase)
	assert.Equal(t, 25, status.Percent)
}

func TestGet_ProfileNotFound(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetCurrentProfile", mock.Anything, int64(5)).Return(nil, models.ErrProfileNotFound).Once()

	_, err := NewService(repo, newNoopLogger()).Get(context.Background(), 5)
	assert.ErrorIs(t, err, models.ErrProfileNotFound)
	repo.AssertNotCalled(t, "GetProgress", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteDay(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetCurrentProfile", mock.Anything, int64(5)).Return(&models.SkinProfile{UserID: 5, Version: 3}, nil).Once()
	repo.On("UpdateProgress", mock.Anything, int64(5), 3).Return(models.Progress{CompletedDays: []int{1, 3}}, nil).Once()

	status, err := NewService(repo, newNoopLogger()).CompleteDay(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, status.CompletedDays)
	assert.Equal(t, 4, status.CurrentDay)
	assert.Equal(t, models.PhaseAdaptation, status.Phase)
	repo.AssertExpectations(t)
}

func TestCompleteDay_InvalidDay(t *testing.T) {
	repo := new(RepoMock)
	svc := NewService(repo, newNoopLogger())

	for _, day := range []int{0, 29, -3} {
		_, err := svc.CompleteDay(context.Background(), 5, day)
		assert.ErrorIs(t, err, models.ErrInvalidDay, "day %d", day)
	}
	repo.AssertNotCalled(t, "GetCurrentProfile", mock.Anything, mock.Anything)
}

func TestCompleteDay_StorageError(t *testing.T) {
	dbErr := errors.New("deadlock detected")
	repo := new(RepoMock)
	repo.On("GetCurrentProfile", mock.Anything, int64(5)).Return(&models.SkinProfile{UserID: 5, Version: 1}, nil).Once()
	repo.On("UpdateProgress", mock.Anything, int64(5), 1).Return(models.Progress{}, dbErr).Once()

	_, err := NewService(repo, newNoopLogger()).CompleteDay(context.Background(), 5, 10)
	assert.ErrorIs(t, err, dbErr)
}
