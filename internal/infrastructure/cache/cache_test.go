package cache

import (
	"context"
	"testing"
	"time"

	"github.com/solarerp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore()
	store.now = clock.Now

	t.Run("first mark wins", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "notify:evt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "notify:evt-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		done, err := store.IsProcessed(ctx, "notify:evt-1")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("expired key can be marked again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "notify:evt-2", time.Minute)
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)

		done, err := store.IsProcessed(ctx, "notify:evt-2")
		require.NoError(t, err)
		assert.False(t, done)

		isNew, err := store.MarkProcessed(ctx, "notify:evt-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("sweep drops expired keys on write", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		_, err := store.MarkProcessed(ctx, "notify:evt-3", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	require.NoError(t, store.Close())
	assert.Zero(t, store.Len())
}

func TestNewIdempotencyStore_FallsBackToMemory(t *testing.T) {
	store := NewIdempotencyStore(nil, nil)
	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}

func TestNewRedisClient_NotConfigured(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestLocalJobLocker(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	locker := NewLocalJobLocker()
	locker.now = clock.Now

	release, err := locker.Obtain(ctx, "overdue-sweep", time.Minute)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "overdue-sweep", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	_, err = locker.Obtain(ctx, "other-job", time.Minute)
	assert.NoError(t, err, "locks are per key")

	require.NoError(t, release(ctx))
	release, err = locker.Obtain(ctx, "overdue-sweep", time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = locker.Obtain(ctx, "overdue-sweep", time.Minute)
	require.NoError(t, err, "an expired holder loses the lock")
	assert.NoError(t, release(ctx), "a stale release leaves the new holder alone")
	_, err = locker.Obtain(ctx, "overdue-sweep", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
}

func TestNewJobLocker_LocalWithoutRedis(t *testing.T) {
	_, ok := NewJobLocker(nil).(*LocalJobLocker)
	assert.True(t, ok)
}
