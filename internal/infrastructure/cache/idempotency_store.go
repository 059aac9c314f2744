package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/solarerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultIdempotencyPrefix = "solarerp:idempotency:"

// NewIdempotencyStore picks the redis store when a client is given
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("redis not configured, keeping idempotency keys in memory; " +
			"replicas may send duplicate notifications")
		return NewInMemoryIdempotencyStore()
	}
	logger.Info("using redis idempotency store")
	return NewRedisIdempotencyStore(client, "")
}

// RedisIdempotencyStore keeps keys in redis with SET NX so replicas share them
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewRedisIdempotencyStore creates a store writing keys under prefix
func NewRedisIdempotencyStore(client *redis.Client, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

// MarkProcessed sets the key if absent; true means this caller set it
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether the key is present
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s processed: %w", key, err)
	}
	return n > 0, nil
}

// Close is a no-op; the client is owned by whoever created it
func (s *RedisIdempotencyStore) Close() error { return nil }

// InMemoryIdempotencyStore keeps keys in a map. Expired keys are swept on
// writes once the sweep interval has passed.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiresAt map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewInMemoryIdempotencyStore creates an empty store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{expiresAt: make(map[string]time.Time), now: time.Now}
}

const sweepInterval = 5 * time.Minute

// MarkProcessed records the key unless a live entry exists
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		for k, exp := range s.expiresAt {
			if !now.Before(exp) {
				delete(s.expiresAt, k)
			}
		}
		s.lastSweep = now
	}
	if exp, ok := s.expiresAt[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiresAt[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live entry exists
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiresAt[key]
	return ok && s.now().Before(exp), nil
}

// Len returns the number of stored keys, expired ones included until swept
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiresAt)
}

// Close drops all keys
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	s.expiresAt = make(map[string]time.Time)
	s.mu.Unlock()
	return nil
}

var (
	_ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
)
