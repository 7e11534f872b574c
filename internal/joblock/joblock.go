package joblock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the lock.
var ErrLocked = errors.New("joblock: already running")

// Locker grants exclusive, expiring ownership of a named job.
type Locker interface {
	// Acquire takes the lock or returns ErrLocked. The returned func releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// With runs fn while holding key.
func With(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	release, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// LocalLocker serializes jobs within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalLocker constructs an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

// Acquire implements Locker. Expired holds are taken over; a non-positive ttl never expires.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.held[key]; ok && (until.IsZero() || now.Before(until)) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}
	var until time.Time
	if ttl > 0 {
		until = now.Add(ttl)
	}
	l.held[key] = until
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if current, ok := l.held[key]; ok && current.Equal(until) {
				delete(l.held, key)
			}
		})
	}, nil
}

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker serializes jobs across instances with SET NX PX.
type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisLocker constructs a locker over rdb.
func NewRedisLocker(rdb redis.UniversalClient, prefix string) (*RedisLocker, error) {
	if rdb == nil {
		return nil, errors.New("joblock: nil redis client")
	}
	if prefix == "" {
		prefix = "waterhealth"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}, nil
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		return nil, errors.New("joblock: ttl must be positive")
	}
	full := l.prefix + ":lock:" + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("joblock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.rdb, []string{full}, token).Err()
	}, nil
}
