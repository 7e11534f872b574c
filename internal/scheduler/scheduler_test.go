package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterhealth-cloud/internal/joblock"
)

func TestAddJobValidates(t *testing.T) {
	s := New(zerolog.Nop())
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.AddJob(Job{Schedule: "@hourly", Run: noop}))
	assert.Error(t, s.AddJob(Job{Name: "recalculate", Schedule: "not a schedule", Run: noop}))
	require.NoError(t, s.AddJob(Job{Name: "recalculate", Schedule: "@hourly", Run: noop}))
	assert.Error(t, s.AddJob(Job{Name: "recalculate", Schedule: "@daily", Run: noop}))
}

func TestRunJobRecordsResult(t *testing.T) {
	s := New(zerolog.Nop())
	calls := 0
	require.NoError(t, s.AddJob(Job{Name: "recalculate", Schedule: "@hourly", Run: func(context.Context) error {
		calls++
		return nil
	}}))
	boom := errors.New("boom")
	require.NoError(t, s.AddJob(Job{Name: "send-pending", Schedule: "@hourly", Run: func(context.Context) error {
		return boom
	}}))

	require.NoError(t, s.RunJob(context.Background(), "recalculate"))
	assert.Equal(t, 1, calls)
	r, ok := s.LastResult("recalculate")
	require.True(t, ok)
	assert.Empty(t, r.Error)
	assert.False(t, r.Skipped)

	assert.ErrorIs(t, s.RunJob(context.Background(), "send-pending"), boom)
	r, _ = s.LastResult("send-pending")
	assert.Equal(t, "boom", r.Error)

	assert.Error(t, s.RunJob(context.Background(), "missing"))
}

func TestRunJobSkipsWhenLockHeld(t *testing.T) {
	locker := joblock.NewLocalLocker()
	s := New(zerolog.Nop(), WithLocker(locker), WithLockTTL(time.Minute))
	ran := false
	require.NoError(t, s.AddJob(Job{Name: "recalculate", Schedule: "@hourly", Run: func(context.Context) error {
		ran = true
		return nil
	}}))

	release, err := locker.Acquire(context.Background(), "recalculate", time.Minute)
	require.NoError(t, err)
	defer release()

	err = s.RunJob(context.Background(), "recalculate")
	assert.ErrorIs(t, err, joblock.ErrLocked)
	assert.False(t, ran)
	r, _ := s.LastResult("recalculate")
	assert.True(t, r.Skipped)
}

func TestJobTimeoutBoundsRun(t *testing.T) {
	s := New(zerolog.Nop(), WithJobTimeout(10*time.Millisecond))
	require.NoError(t, s.AddJob(Job{Name: "slow", Schedule: "@hourly", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))
	assert.ErrorIs(t, s.RunJob(context.Background(), "slow"), context.DeadlineExceeded)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Stop()
}
