package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
)

// PushChannel forwards notifications to the push gateway, addressed by the
// recipient's first registered device token.
type PushChannel struct {
	cfg    config.PushConfig
	client *http.Client
	logger *zap.Logger
}

type pushMessage struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// NewPushChannel constructs the adapter.
func NewPushChannel(cfg config.PushConfig, logger *zap.Logger) *PushChannel {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Key identifies the channel.
func (p *PushChannel) Key() domain.ChannelKey {
	return domain.ChannelPush
}

// IsAvailable reports whether a gateway endpoint is configured.
func (p *PushChannel) IsAvailable() bool {
	return strings.TrimSpace(p.cfg.GatewayURL) != ""
}

// ValidateRecipient requires a device token.
func (p *PushChannel) ValidateRecipient(address string) bool {
	return strings.TrimSpace(address) != ""
}

// Send posts the notification to the push gateway.
func (p *PushChannel) Send(ctx context.Context, payload Payload) Result {
	if !p.IsAvailable() {
		return failure(p.Key(), fmt.Errorf("push gateway not configured"))
	}

	msg := pushMessage{
		Token: payload.Address,
		Title: payload.Notification.Title,
		Body:  payload.Notification.Body,
	}
	if payload.Notification.DeepLink != nil {
		msg.Link = *payload.Notification.DeepLink
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return failure(p.Key(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return failure(p.Key(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return failure(p.Key(), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(p.Key(), fmt.Errorf("push gateway returned status %d", resp.StatusCode))
	}
	return success(p.Key(), "")
}
