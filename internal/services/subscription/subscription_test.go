package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/access-guard/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetSubscriptionStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionStatus), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	if args.Bool(0) {
		*result.(*models.SubscriptionStatus) = models.SubscriptionStatus{Status: models.SubscriptionActive}
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func newTestService(repo *RepoMock, cache *CacheMock) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, cache, 14*24*time.Hour, log)
}

func TestService_GetSubscriptionStatus_CacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "subscription:status:uid-1", mock.Anything).Return(true, nil)

	svc := newTestService(repo, cache)
	got, err := svc.GetSubscriptionStatus(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.Status)
	repo.AssertNotCalled(t, "GetSubscriptionStatus")
}

func TestService_GetSubscriptionStatus_CacheMiss(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "subscription:status:uid-1", mock.Anything).Return(false, nil)
	repo.On("GetSubscriptionStatus", mock.Anything, "uid-1").
		Return(&models.SubscriptionStatus{Status: models.SubscriptionExpired}, nil)
	cache.On("Set", mock.Anything, "subscription:status:uid-1", mock.Anything, time.Minute).Return(nil)

	svc := newTestService(repo, cache)
	got, err := svc.GetSubscriptionStatus(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, got.Status)
	cache.AssertExpectations(t)
}

func TestService_GetSubscriptionStatus_CacheErrorFallsThrough(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	repo.On("GetSubscriptionStatus", mock.Anything, "uid-1").
		Return(&models.SubscriptionStatus{Status: models.SubscriptionActive}, nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := newTestService(repo, cache)
	got, err := svc.GetSubscriptionStatus(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.Status)
}

func TestService_GetSubscriptionStatus_RepoErrorPropagates(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("GetSubscriptionStatus", mock.Anything, "uid-1").
		Return(nil, errors.New("billing store unavailable"))

	svc := newTestService(repo, cache)
	_, err := svc.GetSubscriptionStatus(context.Background(), "uid-1")

	require.Error(t, err)
}

func TestService_Normalize(t *testing.T) {
	trialStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   models.SubscriptionStatus
		want func(t *testing.T, got *models.SubscriptionStatus)
	}{
		{
			name: "неизвестный статус опускается до none",
			in:   models.SubscriptionStatus{Status: "suspended"},
			want: func(t *testing.T, got *models.SubscriptionStatus) {
				assert.Equal(t, models.SubscriptionNone, got.Status)
			},
		},
		{
			name: "дата окончания пробного периода достраивается",
			in: models.SubscriptionStatus{
				Status:         models.SubscriptionTrialing,
				TrialStartedAt: &trialStart,
			},
			want: func(t *testing.T, got *models.SubscriptionStatus) {
				require.NotNil(t, got.TrialEndsAt)
				assert.Equal(t, trialStart.Add(14*24*time.Hour), *got.TrialEndsAt)
			},
		},
		{
			name: "заполненные даты не перезаписываются",
			in: models.SubscriptionStatus{
				Status:         models.SubscriptionTrialing,
				TrialStartedAt: &trialStart,
				TrialEndsAt:    &trialStart,
			},
			want: func(t *testing.T, got *models.SubscriptionStatus) {
				assert.Equal(t, trialStart, *got.TrialEndsAt)
			},
		},
	}

	svc := newTestService(new(RepoMock), new(CacheMock))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, svc.normalize(&tt.in))
		})
	}
}
