package channel

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
)

// BreakerChannel wraps an adapter with a circuit breaker. While the breaker
// is open the channel reports unavailable, so resolution drops it the same
// way as an unconfigured channel instead of hammering a failing transport.
type BreakerChannel struct {
	inner   Channel
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// WithBreaker wraps the channel with failure-threshold tripping.
func WithBreaker(inner Channel, logger *zap.Logger) *BreakerChannel {
	settings := gobreaker.Settings{
		Name:    string(inner.Key()),
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("channel breaker state change",
				zap.String("channel", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerChannel{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Key identifies the wrapped channel.
func (b *BreakerChannel) Key() domain.ChannelKey {
	return b.inner.Key()
}

// IsAvailable combines breaker state with the inner adapter's availability.
func (b *BreakerChannel) IsAvailable() bool {
	if b.breaker.State() == gobreaker.StateOpen {
		return false
	}
	return b.inner.IsAvailable()
}

// ValidateRecipient delegates to the inner adapter.
func (b *BreakerChannel) ValidateRecipient(address string) bool {
	return b.inner.ValidateRecipient(address)
}

// Send runs the delivery through the breaker.
func (b *BreakerChannel) Send(ctx context.Context, payload Payload) Result {
	outcome, err := b.breaker.Execute(func() (interface{}, error) {
		res := b.inner.Send(ctx, payload)
		if !res.Success {
			return res, res.Err
		}
		return res, nil
	})
	if res, ok := outcome.(Result); ok {
		return res
	}
	return failure(b.Key(), err)
}
