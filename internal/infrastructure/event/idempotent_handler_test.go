package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/cache"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryIdempotencyStore()
	inner := testutil.NewMockEventHandler("InstallmentPaid")
	h := NewIdempotentHandler("notify", inner, store, shared.DefaultIdempotencyConfig(), nil)
	evt := testutil.NewTestEvent("InstallmentPaid", uuid.New())

	require.NoError(t, h.Handle(ctx, evt))
	require.NoError(t, h.Handle(ctx, evt))

	assert.Equal(t, 1, inner.HandledCount())
	assert.Equal(t, IdempotencyStats{Processed: 1, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"InstallmentPaid"}, h.EventTypes())
}

func TestIdempotentHandler_KeysAreNamespacedPerHandler(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryIdempotencyStore()
	cfg := shared.DefaultIdempotencyConfig()
	email := testutil.NewMockEventHandler("SaleRealized")
	metrics := testutil.NewMockEventHandler("SaleRealized")
	a := NewIdempotentHandler("notify", email, store, cfg, nil)
	b := NewIdempotentHandler("metrics", metrics, store, cfg, nil)
	evt := testutil.NewTestEvent("SaleRealized", uuid.New())

	require.NoError(t, a.Handle(ctx, evt))
	require.NoError(t, b.Handle(ctx, evt))

	assert.Equal(t, 1, email.HandledCount())
	assert.Equal(t, 1, metrics.HandledCount())
	assert.Equal(t, "notify:"+evt.EventID().String(), a.Key(evt))
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, 24*time.Hour).Return(false, errors.New("redis down"))
	inner := testutil.NewMockEventHandler("SaleCompleted")
	h := NewIdempotentHandler("notify", inner, store, shared.DefaultIdempotencyConfig(), nil)

	require.NoError(t, h.Handle(context.Background(), testutil.NewTestEvent("SaleCompleted", uuid.New())))
	assert.Equal(t, 1, inner.HandledCount())
	store.AssertExpectations(t)
}

func TestIdempotentHandler_FailureIsReturnedAndCounted(t *testing.T) {
	inner := testutil.NewMockEventHandler("SaleCancelled")
	inner.SetError(errors.New("template missing"))
	h := NewIdempotentHandler("notify", inner, cache.NewInMemoryIdempotencyStore(), shared.DefaultIdempotencyConfig(), nil)

	err := h.Handle(context.Background(), testutil.NewTestEvent("SaleCancelled", uuid.New()))
	assert.Error(t, err)
	assert.Equal(t, int64(1), h.Stats().Failed)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := testutil.NewMockEventHandler("SaleRealized")
	h := NewIdempotentHandler("notify", inner, store, shared.IdempotencyConfig{Enabled: false}, nil)
	evt := testutil.NewTestEvent("SaleRealized", uuid.New())

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Equal(t, 2, inner.HandledCount())
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}
