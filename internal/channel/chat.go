package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
)

// ChatChannel posts notifications to the chat-bot webhook endpoint.
type ChatChannel struct {
	cfg    config.ChatConfig
	client *http.Client
	logger *zap.Logger
}

type chatMessage struct {
	ChatID string `json:"chat_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Link   string `json:"link,omitempty"`
}

type chatResponse struct {
	MessageID string `json:"message_id"`
}

// NewChatChannel constructs the adapter.
func NewChatChannel(cfg config.ChatConfig, logger *zap.Logger) *ChatChannel {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChatChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Key identifies the channel.
func (c *ChatChannel) Key() domain.ChannelKey {
	return domain.ChannelChat
}

// IsAvailable reports whether a webhook endpoint is configured.
func (c *ChatChannel) IsAvailable() bool {
	return strings.TrimSpace(c.cfg.WebhookURL) != ""
}

// ValidateRecipient requires a non-empty chat id.
func (c *ChatChannel) ValidateRecipient(address string) bool {
	return strings.TrimSpace(address) != ""
}

// Send posts the notification to the webhook.
func (c *ChatChannel) Send(ctx context.Context, payload Payload) Result {
	if !c.IsAvailable() {
		return failure(c.Key(), fmt.Errorf("chat webhook not configured"))
	}

	msg := chatMessage{
		ChatID: payload.Address,
		Title:  payload.Notification.Title,
		Body:   payload.Notification.Body,
	}
	if payload.Notification.DeepLink != nil {
		msg.Link = *payload.Notification.DeepLink
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return failure(c.Key(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return failure(c.Key(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return failure(c.Key(), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(c.Key(), fmt.Errorf("chat webhook returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		_ = json.Unmarshal(data, &parsed)
	}
	return success(c.Key(), parsed.MessageID)
}
