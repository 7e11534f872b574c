package joblock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExcludesSecondHolder(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "recalculate", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "recalculate", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "send-pending", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(ctx, "recalculate", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocalLockerExpiredHoldIsTakenOver(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(context.Background(), "recalculate", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := l.Acquire(context.Background(), "recalculate", time.Minute)
	require.NoError(t, err)

	stale()
	_, err = l.Acquire(context.Background(), "recalculate", time.Minute)
	assert.ErrorIs(t, err, ErrLocked, "stale release must not drop the fresh hold")
	fresh()
}

func TestWithRunsUnderLock(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()
	var inner error
	err := With(ctx, l, "recalculate", time.Minute, func(ctx context.Context) error {
		inner = With(ctx, l, "recalculate", time.Minute, func(context.Context) error { return nil })
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrLocked)

	boom := errors.New("boom")
	assert.ErrorIs(t, With(ctx, nil, "x", time.Minute, func(context.Context) error { return boom }), boom)
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	l, err := NewRedisLocker(rdb, "waterhealth-test")
	require.NoError(t, err)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "recalculate", 5*time.Second)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "recalculate", 5*time.Second)
	assert.ErrorIs(t, err, ErrLocked)
	release()

	release, err = l.Acquire(ctx, "recalculate", 5*time.Second)
	require.NoError(t, err)
	release()
}

func TestNewRedisLockerValidates(t *testing.T) {
	_, err := NewRedisLocker(nil, "")
	assert.Error(t, err)
}
