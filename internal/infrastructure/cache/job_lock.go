package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock
var ErrLockHeld = errors.New("lock held by another worker")

// JobLocker grants exclusive, expiring ownership of a named job
type JobLocker interface {
	// Obtain returns a release func, or ErrLockHeld
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// NewJobLocker uses redis when a client is given so only one replica runs a job
func NewJobLocker(client *redis.Client) JobLocker {
	if client == nil {
		return NewLocalJobLocker()
	}
	return &RedisJobLocker{client: redislock.New(client)}
}

// RedisJobLocker is a JobLocker on top of redislock
type RedisJobLocker struct {
	client *redislock.Client
}

// Obtain tries once; it does not wait for the current holder
func (l *RedisJobLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, "solarerp:lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// LocalJobLocker serializes jobs inside one process
type LocalJobLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalJobLocker creates a process-local locker
func NewLocalJobLocker() *LocalJobLocker {
	return &LocalJobLocker{held: make(map[string]time.Time), now: time.Now}
}

// Obtain grants the lock unless an unexpired holder exists
func (l *LocalJobLocker) Obtain(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, ErrLockHeld
	}
	expiry := now.Add(ttl)
	l.held[key] = expiry
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expiry) {
			delete(l.held, key)
		}
		return nil
	}, nil
}
