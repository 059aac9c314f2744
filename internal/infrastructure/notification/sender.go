// Package notification delivers client notifications rendered by the
// application layer.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	appnotification "github.com/solarerp/backend/internal/application/notification"
	"go.uber.org/zap"
)

// LogSender writes notifications to the service log. Used in development and
// when no mail pipeline is attached.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger.Named("notification")}
}

// Send logs the notification
func (s *LogSender) Send(_ context.Context, n appnotification.Notification) error {
	s.logger.Info("notification",
		zap.String("tenant_id", n.TenantID.String()),
		zap.String("client_id", n.ClientID.String()),
		zap.String("template", n.Template),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
		zap.String("event_id", n.EventID.String()))
	return nil
}

// RedisStreamSender appends notifications to a redis stream read by the mailer
type RedisStreamSender struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamSender creates a sender on stream. The stream is trimmed to
// roughly maxLen entries; zero keeps everything.
func NewRedisStreamSender(client *redis.Client, stream string, maxLen int64) *RedisStreamSender {
	return &RedisStreamSender{client: client, stream: stream, maxLen: maxLen}
}

// Send adds one entry. The event id doubles as the dedup key for consumers.
func (s *RedisStreamSender) Send(ctx context.Context, n appnotification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"template": n.Template,
			"tenant":   n.TenantID.String(),
			"event_id": n.EventID.String(),
			"payload":  payload,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

var (
	_ appnotification.Sender = (*LogSender)(nil)
	_ appnotification.Sender = (*RedisStreamSender)(nil)
)
