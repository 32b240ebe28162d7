package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/models"
	"beachrent/internal/timeutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) GenerateReport(ctx context.Context, actor models.Actor, date string) (*models.DailyReport, error) {
	args := m.Called(ctx, actor, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyReport), args.Error(1)
}

type mockResetter struct {
	mock.Mock
}

func (m *mockResetter) ResetDay(ctx context.Context, actor models.Actor) error {
	return m.Called(ctx, actor).Error(0)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func testClock(t *testing.T, at time.Time) *timeutil.Clock {
	t.Helper()
	c, err := timeutil.NewClock("Europe/Bucharest")
	require.NoError(t, err)
	return c.WithNow(func() time.Time { return at })
}

func TestRunOnce_ReportThenReset(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	clock := testClock(t, time.Date(2024, 7, 2, 0, 0, 1, 0, time.UTC))

	reports, resetter := new(mockReports), new(mockResetter)
	var order []string
	reports.On("GenerateReport", ctx, models.SystemActor, "2024-07-01").
		Run(func(mock.Arguments) { order = append(order, "report") }).
		Return(&models.DailyReport{ID: 1}, nil)
	resetter.On("ResetDay", ctx, models.SystemActor).
		Run(func(mock.Arguments) { order = append(order, "reset") }).
		Return(nil)

	NewMidnight(reports, resetter, clock, nil, &logger).RunOnce(ctx)

	assert.Equal(t, []string{"report", "reset"}, order)
	reports.AssertExpectations(t)
	resetter.AssertExpectations(t)
}

func TestRunOnce_ReportFailureStillResets(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	clock := testClock(t, time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC))

	reports, resetter := new(mockReports), new(mockResetter)
	reports.On("GenerateReport", ctx, models.SystemActor, "2024-07-01").Return(nil, errors.New("disk full"))
	resetter.On("ResetDay", ctx, models.SystemActor).Return(nil)

	NewMidnight(reports, resetter, clock, nil, &logger).RunOnce(ctx)

	resetter.AssertExpectations(t)
}

func TestRunOnce_Lock(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	clock := testClock(t, time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC))

	reports, resetter, locker := new(mockReports), new(mockResetter), new(mockLocker)
	locker.On("Acquire", ctx, "midnight:2024-07-01", models.MidnightLockTTL).Return(false, nil).Once()

	m := NewMidnight(reports, resetter, clock, locker, &logger)
	m.RunOnce(ctx)
	reports.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything, mock.Anything)
	resetter.AssertNotCalled(t, "ResetDay", mock.Anything, mock.Anything)

	locker.On("Acquire", ctx, "midnight:2024-07-01", models.MidnightLockTTL).Return(false, errors.New("redis down")).Once()
	m.RunOnce(ctx)
	resetter.AssertNotCalled(t, "ResetDay", mock.Anything, mock.Anything)

	locker.On("Acquire", ctx, "midnight:2024-07-01", models.MidnightLockTTL).Return(true, nil).Once()
	reports.On("GenerateReport", ctx, models.SystemActor, "2024-07-01").Return(&models.DailyReport{ID: 7}, nil).Once()
	resetter.On("ResetDay", ctx, models.SystemActor).Return(nil).Once()
	m.RunOnce(ctx)

	locker.AssertExpectations(t)
	reports.AssertExpectations(t)
	resetter.AssertExpectations(t)
}

func TestTrigger(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	clock := testClock(t, time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC))

	reports, resetter := new(mockReports), new(mockResetter)
	m := NewMidnight(reports, resetter, clock, nil, &logger)

	err := m.Trigger(ctx, models.Actor{ID: 2, Role: models.RoleStaff})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	reports.On("GenerateReport", ctx, models.SystemActor, "2024-07-01").Return(&models.DailyReport{ID: 1}, nil)
	resetter.On("ResetDay", ctx, models.SystemActor).Return(domain.ErrStorageFailure)

	err = m.Trigger(ctx, models.Actor{ID: 1, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestStart_FiresAtMidnightAndStops(t *testing.T) {
	logger := zerolog.New(io.Discard)
	loc, err := time.LoadLocation("Europe/Bucharest")
	require.NoError(t, err)

	// 30ms before local midnight
	beforeMidnight := time.Date(2024, 7, 2, 0, 0, 0, 0, loc).Add(-30 * time.Millisecond)
	clock := testClock(t, beforeMidnight)

	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan struct{}, 1)

	reports, resetter := new(mockReports), new(mockResetter)
	reports.On("GenerateReport", mock.Anything, models.SystemActor, mock.Anything).Return(&models.DailyReport{ID: 1}, nil)
	resetter.On("ResetDay", mock.Anything, models.SystemActor).
		Run(func(mock.Arguments) {
			select {
			case fired <- struct{}{}:
			default:
			}
			cancel()
		}).
		Return(nil)

	done := make(chan struct{})
	go func() {
		NewMidnight(reports, resetter, clock, nil, &logger).Start(ctx)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("midnight job did not fire")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
