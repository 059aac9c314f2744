package shared

import (
	"context"
	"time"
)

// IdempotencyStore records which event ids a handler already consumed.
// Keys expire so the store stays bounded.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. False means someone claimed it first.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig tunes duplicate suppression of event handlers.
// A disabled config lets every delivery through.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig suppresses redeliveries for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: 24 * time.Hour}
}
