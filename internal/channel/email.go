package channel

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
)

// sendMailFunc matches smtp.SendMail, injectable for tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers notifications over plain SMTP.
type EmailChannel struct {
	cfg      config.EmailConfig
	logger   *zap.Logger
	sendMail sendMailFunc
}

// NewEmailChannel constructs the adapter.
func NewEmailChannel(cfg config.EmailConfig, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, logger: logger, sendMail: smtp.SendMail}
}

// Key identifies the channel.
func (e *EmailChannel) Key() domain.ChannelKey {
	return domain.ChannelEmail
}

// IsAvailable reports whether an SMTP host is configured.
func (e *EmailChannel) IsAvailable() bool {
	return strings.TrimSpace(e.cfg.Host) != ""
}

// ValidateRecipient checks the address parses as an email address.
func (e *EmailChannel) ValidateRecipient(address string) bool {
	_, err := mail.ParseAddress(address)
	return err == nil
}

// Send delivers the notification body as a plain-text message.
func (e *EmailChannel) Send(ctx context.Context, payload Payload) Result {
	if !e.IsAvailable() {
		return failure(e.Key(), fmt.Errorf("smtp host not configured"))
	}
	if err := ctx.Err(); err != nil {
		return failure(e.Key(), err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), e.cfg.Host)
	msg := buildEmailMessage(e.cfg.From, payload.Address, messageID, payload.Notification)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	addr := e.cfg.Host + ":" + e.cfg.Port
	done := make(chan error, 1)
	go func() {
		done <- e.sendMail(addr, auth, e.cfg.From, []string{payload.Address}, msg)
	}()

	// smtp.SendMail has no context support; honor cancellation here and let
	// the dial time out on its own.
	select {
	case err := <-done:
		if err != nil {
			return failure(e.Key(), err)
		}
		return success(e.Key(), messageID)
	case <-ctx.Done():
		return failure(e.Key(), ctx.Err())
	}
}

func buildEmailMessage(from, to, messageID string, n *domain.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Subject: %s\r\n", n.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(n.Body)
	if n.DeepLink != nil && *n.DeepLink != "" {
		b.WriteString("\r\n\r\n")
		b.WriteString(*n.DeepLink)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
