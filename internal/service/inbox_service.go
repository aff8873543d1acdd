package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
)

// InboxService serves the recipient-facing notification queries and the
// read-flag mutations, the only mutation a notification permits.
type InboxService struct {
	notifications repository.NotificationRepository
	logs          repository.DeliveryLogRepository
	logger        *zap.Logger
}

// NewInboxService constructs the service.
func NewInboxService(notifications repository.NotificationRepository, logs repository.DeliveryLogRepository, logger *zap.Logger) *InboxService {
	return &InboxService{notifications: notifications, logs: logs, logger: logger}
}

// List returns the user's notifications, newest first.
func (s *InboxService) List(ctx context.Context, userID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, filter)
}

// UnreadCount returns the number of unread notifications.
func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkAsRead flips the read flag on one owned notification.
func (s *InboxService) MarkAsRead(ctx context.Context, id, userID string) error {
	return s.notifications.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead flips the read flag on every unread notification. The
// operation is idempotent: a second call is a no-op returning zero.
func (s *InboxService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

// Delete removes one owned notification.
func (s *InboxService) Delete(ctx context.Context, id, userID string) error {
	return s.notifications.Delete(ctx, id, userID)
}

// DeliveryLogs returns the delivery trail for one notification.
func (s *InboxService) DeliveryLogs(ctx context.Context, notificationID string) ([]domain.DeliveryLog, error) {
	return s.logs.ListByNotification(ctx, notificationID)
}
