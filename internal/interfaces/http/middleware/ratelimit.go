package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows
type Limiter interface {
	// Allow records one request for key and reports whether it is within the
	// limit, together with the requests left in the current window
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// NewLimiter returns a redis backed limiter shared by all replicas, or an
// in-process one when client is nil
func NewLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	if client != nil {
		return NewRedisLimiter(client, limit, window)
	}
	return NewMemoryLimiter(limit, window)
}

// MemoryLimiter is a fixed window limiter for a single process
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
	swept   time.Time
}

type window struct {
	count int
	start time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter(limit int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  win,
		now:     time.Now,
	}
}

// Limit implements Limiter
func (l *MemoryLimiter) Limit() int { return l.limit }

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return false, 0, nil
	}
	w.count++
	return true, l.limit - w.count, nil
}

// sweep drops expired windows at most once per window length
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
	l.swept = now
}

// RedisLimiter is a fixed window limiter on INCR + PEXPIRE
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter shared through redis
func NewRedisLimiter(client *redis.Client, limit int, win time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: win, prefix: "solarerp:ratelimit:"}
}

// Limit implements Limiter
func (l *RedisLimiter) Limit() int { return l.limit }

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	slot := time.Now().UnixMilli() / l.window.Milliseconds()
	redisKey := l.prefix + key + ":" + strconv.FormatInt(slot, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, fmt.Errorf("rate limit counter: %w", err)
	}
	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - count, nil
}

// RateLimit limits requests per authenticated user, or per client IP before
// authentication. Limiter errors let the request through.
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			key = "user:" + claims.TenantID + ":" + claims.UserID
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			abort(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
