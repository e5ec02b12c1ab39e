package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestScheduler_RegistersDuelExpiry(t *testing.T) {
	s := NewScheduler(new(mockExpirer), time.UTC)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 1)

	// hourly: the next two runs are one hour apart, on the hour
	next := entries[0].Schedule.Next(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Hour, entries[0].Schedule.Next(next).Sub(next))
}

func TestScheduler_NoDuelsNoJobs(t *testing.T) {
	s := NewScheduler(nil, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Empty(t, s.cron.Entries())
}

func TestScheduler_ExpireDuels(t *testing.T) {
	ctx := context.Background()
	m := new(mockExpirer)
	m.On("ExpireStale", ctx).Return(int64(3), nil).Once()
	m.On("ExpireStale", ctx).Return(int64(0), errors.New("db down")).Once()

	s := NewScheduler(m, time.UTC)
	s.expireDuels(ctx)
	s.expireDuels(ctx)

	m.AssertExpectations(t)
}
