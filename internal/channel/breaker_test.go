package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
)

func TestBreakerPassesThroughSuccess(t *testing.T) {
	id := "m-1"
	inner := &stubChannel{
		key:       domain.ChannelChat,
		available: true,
		result:    Result{Success: true, Channel: domain.ChannelChat, MessageID: &id},
	}
	wrapped := WithBreaker(inner, zap.NewNop())

	assert.Equal(t, domain.ChannelChat, wrapped.Key())
	assert.True(t, wrapped.IsAvailable())

	res := wrapped.Send(context.Background(), Payload{})
	require.True(t, res.Success)
	assert.Equal(t, &id, res.MessageID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubChannel{
		key:       domain.ChannelEmail,
		available: true,
		result:    Result{Success: false, Channel: domain.ChannelEmail, Err: errors.New("smtp down")},
	}
	wrapped := WithBreaker(inner, zap.NewNop())

	for i := 0; i < 5; i++ {
		assert.True(t, wrapped.IsAvailable(), "breaker stays closed until the threshold")
		res := wrapped.Send(context.Background(), Payload{})
		assert.False(t, res.Success)
	}

	// the open breaker reports unavailable so resolution drops the channel
	assert.False(t, wrapped.IsAvailable())

	res := wrapped.Send(context.Background(), Payload{})
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	inner := &stubChannel{
		key:       domain.ChannelPush,
		available: true,
		result:    Result{Success: false, Channel: domain.ChannelPush, Err: errors.New("gateway 502")},
	}
	wrapped := WithBreaker(inner, zap.NewNop())

	for i := 0; i < 4; i++ {
		wrapped.Send(context.Background(), Payload{})
	}

	id := "m-2"
	inner.result = Result{Success: true, Channel: domain.ChannelPush, MessageID: &id}
	res := wrapped.Send(context.Background(), Payload{})
	require.True(t, res.Success)

	// consecutive-failure counter reset; more headroom before tripping
	inner.result = Result{Success: false, Channel: domain.ChannelPush, Err: errors.New("gateway 502")}
	for i := 0; i < 4; i++ {
		wrapped.Send(context.Background(), Payload{})
		assert.True(t, wrapped.IsAvailable())
	}
}
