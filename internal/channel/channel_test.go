package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/notification-center/internal/domain"
)

type stubChannel struct {
	key       domain.ChannelKey
	available bool
	result    Result
}

func (s *stubChannel) Key() domain.ChannelKey               { return s.key }
func (s *stubChannel) Send(context.Context, Payload) Result { return s.result }
func (s *stubChannel) ValidateRecipient(string) bool        { return true }
func (s *stubChannel) IsAvailable() bool                    { return s.available }

func TestRegistryLookup(t *testing.T) {
	email := &stubChannel{key: domain.ChannelEmail, available: true}
	chat := &stubChannel{key: domain.ChannelChat, available: true}
	reg := NewRegistry(email, chat)

	got, ok := reg.Lookup(domain.ChannelEmail)
	require.True(t, ok)
	assert.Same(t, Channel(email), got)

	_, ok = reg.Lookup(domain.ChannelPush)
	assert.False(t, ok)

	assert.ElementsMatch(t, []domain.ChannelKey{domain.ChannelEmail, domain.ChannelChat}, reg.Keys())
}

func TestRegistryLaterDuplicateWins(t *testing.T) {
	first := &stubChannel{key: domain.ChannelEmail}
	second := &stubChannel{key: domain.ChannelEmail, available: true}
	reg := NewRegistry(first, second)

	got, ok := reg.Lookup(domain.ChannelEmail)
	require.True(t, ok)
	assert.True(t, got.IsAvailable())
}

func TestInAppChannelAcksWithNotificationID(t *testing.T) {
	ch := NewInAppChannel()
	assert.True(t, ch.IsAvailable())
	assert.True(t, ch.ValidateRecipient("u1"))
	assert.False(t, ch.ValidateRecipient("  "))

	res := ch.Send(context.Background(), Payload{
		Notification: &domain.Notification{ID: "n-7"},
		Address:      "u1",
	})
	require.True(t, res.Success)
	require.NotNil(t, res.MessageID)
	assert.Equal(t, "n-7", *res.MessageID)

	res = ch.Send(context.Background(), Payload{Notification: &domain.Notification{}})
	assert.False(t, res.Success)
}
