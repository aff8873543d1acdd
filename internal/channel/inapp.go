package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/notification-center/internal/domain"
)

// InAppChannel acknowledges in-app delivery. The durable notification row
// plus the realtime publish performed by the orchestrator are the actual
// transport; this adapter exists so in-app participates in the same
// capability surface and delivery-log trail as every other channel.
type InAppChannel struct{}

// NewInAppChannel constructs the adapter.
func NewInAppChannel() *InAppChannel {
	return &InAppChannel{}
}

// Key identifies the channel.
func (i *InAppChannel) Key() domain.ChannelKey {
	return domain.ChannelInApp
}

// IsAvailable always holds; in-app has no external dependency.
func (i *InAppChannel) IsAvailable() bool {
	return true
}

// ValidateRecipient requires the recipient user id.
func (i *InAppChannel) ValidateRecipient(address string) bool {
	return strings.TrimSpace(address) != ""
}

// Send acknowledges delivery with the notification id as message id.
func (i *InAppChannel) Send(ctx context.Context, payload Payload) Result {
	if payload.Notification == nil || payload.Notification.ID == "" {
		return failure(i.Key(), fmt.Errorf("notification not persisted"))
	}
	return success(i.Key(), payload.Notification.ID)
}
