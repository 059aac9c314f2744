package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	ok, remaining, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, remaining, _ = l.Allow(ctx, "a")
	assert.False(t, ok)
	assert.Zero(t, remaining)

	ok, _, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are limited independently")

	now = now.Add(time.Minute)
	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "a new window starts fresh")
	assert.Len(t, l.windows, 1, "expired windows are swept")
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewMemoryLimiter(1, time.Minute), nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "ERR_RATE_LIMITED", errorCode(t, w))
}

func TestNewLimiter_FallsBackToMemory(t *testing.T) {
	_, ok := NewLimiter(nil, 10, time.Second).(*MemoryLimiter)
	assert.True(t, ok)
}
