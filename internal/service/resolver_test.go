package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/notification-center/internal/domain"
)

func strPtr(s string) *string { return &s }

func activePrefs(userID string) *domain.Preference {
	return &domain.Preference{
		UserID:       userID,
		InAppEnabled: true,
		EmailEnabled: true,
		ChatEnabled:  true,
		PushEnabled:  true,
		EmailAddress: strPtr("user@example.com"),
		ChatID:       strPtr("chat-42"),
		TypeSettings: domain.TypeSettings{},
	}
}

func TestResolveDefaultsWhenNoChannelsRequested(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")

	got := resolver.Resolve(domain.NotificationTicketCreated, nil, prefs, Contacts{UserID: "u1"})

	assert.Equal(t, []Resolution{
		{Channel: domain.ChannelInApp, Address: "u1"},
		{Channel: domain.ChannelEmail, Address: "user@example.com"},
	}, got)
}

func TestResolveDisabledChannelNeverReturned(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")
	prefs.EmailEnabled = false

	requested := []domain.ChannelKey{domain.ChannelInApp, domain.ChannelEmail, domain.ChannelChat}
	got := resolver.Resolve(domain.NotificationTicketAssigned, requested, prefs, Contacts{UserID: "u1"})

	for _, res := range got {
		assert.NotEqual(t, domain.ChannelEmail, res.Channel)
	}
	assert.Len(t, got, 2)
}

func TestResolveTypeOverrideSuppresses(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")
	prefs.TypeSettings = domain.TypeSettings{
		domain.NotificationTicketStatusChanged: {domain.ChannelEmail: false},
	}

	requested := []domain.ChannelKey{domain.ChannelEmail}

	got := resolver.Resolve(domain.NotificationTicketStatusChanged, requested, prefs, Contacts{UserID: "u1"})
	assert.Empty(t, got)

	// override is scoped to its type
	got = resolver.Resolve(domain.NotificationTicketCreated, requested, prefs, Contacts{UserID: "u1"})
	assert.Len(t, got, 1)
}

func TestResolveOverrideNeverReenablesDisabledChannel(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")
	prefs.ChatEnabled = false
	prefs.TypeSettings = domain.TypeSettings{
		domain.NotificationSLABreach: {domain.ChannelChat: true},
	}

	got := resolver.Resolve(domain.NotificationSLABreach, []domain.ChannelKey{domain.ChannelChat}, prefs, Contacts{UserID: "u1"})
	assert.Empty(t, got)
}

func TestResolveMissingAddressDropsSilently(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")
	prefs.EmailAddress = nil
	prefs.ChatID = nil

	requested := []domain.ChannelKey{domain.ChannelEmail, domain.ChannelChat, domain.ChannelPush}

	got := resolver.Resolve(domain.NotificationRenewalWarning, requested, prefs, Contacts{UserID: "u1"})
	assert.Empty(t, got, "no destination means no resolution, not an error")

	got = resolver.Resolve(domain.NotificationRenewalWarning, requested, prefs, Contacts{UserID: "u1", PushToken: "tok-9"})
	assert.Equal(t, []Resolution{{Channel: domain.ChannelPush, Address: "tok-9"}}, got)
}

func TestResolveDeduplicatesPreservingOrder(t *testing.T) {
	resolver := NewChannelResolver()
	prefs := activePrefs("u1")

	requested := []domain.ChannelKey{domain.ChannelEmail, domain.ChannelInApp, domain.ChannelEmail}
	got := resolver.Resolve(domain.NotificationSystemAnnouncement, requested, prefs, Contacts{UserID: "u1"})

	assert.Equal(t, []Resolution{
		{Channel: domain.ChannelEmail, Address: "user@example.com"},
		{Channel: domain.ChannelInApp, Address: "u1"},
	}, got)
}
