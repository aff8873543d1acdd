package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/observability"
)

// Publisher pushes notification events to connected clients. Publishing is
// one-way and best-effort: failures are logged, never surfaced to callers.
type Publisher interface {
	PublishNotification(ctx context.Context, n *domain.Notification)
}

type notificationEnvelope struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	DeepLink    *string   `json:"deep_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type newNotificationEnvelope struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
}

// redisPublisher publishes over redis pub/sub channels.
type redisPublisher struct {
	client  *redis.Client
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRedisPublisher constructs the publisher.
func NewRedisPublisher(client *redis.Client, metrics *observability.Metrics, logger *zap.Logger) Publisher {
	return &redisPublisher{client: client, metrics: metrics, logger: logger}
}

// PublishNotification emits the user-scoped event with the full payload and
// the global invalidation event.
func (p *redisPublisher) PublishNotification(ctx context.Context, n *domain.Notification) {
	if p.client == nil || n == nil {
		return
	}

	full, err := json.Marshal(notificationEnvelope{
		ID:          n.ID,
		UserID:      n.UserID,
		Type:        string(n.Type),
		Category:    string(n.Category),
		Title:       n.Title,
		Body:        n.Body,
		ReferenceID: n.ReferenceID,
		DeepLink:    n.DeepLink,
		CreatedAt:   n.CreatedAt,
	})
	if err != nil {
		p.logger.Warn("marshal realtime payload", zap.Error(err))
		return
	}

	if err := p.client.Publish(ctx, "notification:"+n.UserID, full).Err(); err != nil {
		p.metrics.RecordPublishFailure()
		p.logger.Warn("realtime user publish failed",
			zap.String("notification_id", n.ID), zap.Error(err))
	}

	light, _ := json.Marshal(newNotificationEnvelope{UserID: n.UserID, NotificationID: n.ID})
	if err := p.client.Publish(ctx, "notification:new", light).Err(); err != nil {
		p.metrics.RecordPublishFailure()
		p.logger.Warn("realtime global publish failed",
			zap.String("notification_id", n.ID), zap.Error(err))
	}
}

// NoopPublisher drops all events; used when redis is unavailable.
type NoopPublisher struct{}

// PublishNotification implements Publisher.
func (NoopPublisher) PublishNotification(context.Context, *domain.Notification) {}
