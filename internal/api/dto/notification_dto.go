package dto

import (
	"time"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/service"
)

// SendRequest triggers delivery of one notification.
type SendRequest struct {
	UserID      string   `json:"user_id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	ReferenceID *string  `json:"reference_id,omitempty"`
	DeepLink    *string  `json:"deep_link,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

// BulkSendRequest fans one notification out to many recipients.
type BulkSendRequest struct {
	UserIDs     []string `json:"user_ids"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	ReferenceID *string  `json:"reference_id,omitempty"`
	DeepLink    *string  `json:"deep_link,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

// RoleSendRequest fans one notification out to a staff role.
type RoleSendRequest struct {
	Role        string   `json:"role"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	ReferenceID *string  `json:"reference_id,omitempty"`
	DeepLink    *string  `json:"deep_link,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

// NotificationResponse is the wire shape of one notification.
type NotificationResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	DeepLink    *string   `json:"deep_link,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChannelOutcomeResponse reports one channel's delivery outcome.
type ChannelOutcomeResponse struct {
	Channel  string `json:"channel"`
	Status   string `json:"status,omitempty"`
	Buffered bool   `json:"buffered"`
	Error    string `json:"error,omitempty"`
}

// DeliveryLogResponse is the wire shape of one delivery log entry.
type DeliveryLogResponse struct {
	ID                string     `json:"id"`
	NotificationID    string     `json:"notification_id"`
	Channel           string     `json:"channel"`
	Status            string     `json:"status"`
	RecipientAddress  string     `json:"recipient_address"`
	ExternalMessageID *string    `json:"external_message_id,omitempty"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	RetryCount        int        `json:"retry_count"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// FromNotification maps a domain notification.
func FromNotification(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		Type:        string(n.Type),
		Category:    string(n.Category),
		Title:       n.Title,
		Body:        n.Body,
		ReferenceID: n.ReferenceID,
		DeepLink:    n.DeepLink,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

// FromOutcomes maps channel outcomes.
func FromOutcomes(outcomes []service.ChannelOutcome) []ChannelOutcomeResponse {
	result := make([]ChannelOutcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		result = append(result, ChannelOutcomeResponse{
			Channel:  string(outcome.Channel),
			Status:   string(outcome.Status),
			Buffered: outcome.Buffered,
			Error:    outcome.Error,
		})
	}
	return result
}

// FromDeliveryLog maps a domain delivery log entry.
func FromDeliveryLog(entry domain.DeliveryLog) DeliveryLogResponse {
	return DeliveryLogResponse{
		ID:                entry.ID,
		NotificationID:    entry.NotificationID,
		Channel:           string(entry.Channel),
		Status:            string(entry.Status),
		RecipientAddress:  entry.RecipientAddress,
		ExternalMessageID: entry.ExternalMessageID,
		ErrorMessage:      entry.ErrorMessage,
		RetryCount:        entry.RetryCount,
		SentAt:            entry.SentAt,
		DeliveredAt:       entry.DeliveredAt,
		CreatedAt:         entry.CreatedAt,
	}
}

// ParseChannels converts wire channel names, rejecting unknown keys.
func ParseChannels(names []string) ([]domain.ChannelKey, bool) {
	keys := make([]domain.ChannelKey, 0, len(names))
	for _, name := range names {
		key := domain.ChannelKey(name)
		switch key {
		case domain.ChannelInApp, domain.ChannelEmail, domain.ChannelChat, domain.ChannelPush:
			keys = append(keys, key)
		default:
			return nil, false
		}
	}
	return keys, true
}
