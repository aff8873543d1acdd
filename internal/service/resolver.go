package service

import (
	"github.com/spec-kit/notification-center/internal/domain"
)

// Contacts carries the non-preference addresses the resolver may hand out.
type Contacts struct {
	UserID    string
	PushToken string
}

// Resolution pairs an eligible channel with the recipient address to use.
type Resolution struct {
	Channel domain.ChannelKey
	Address string
}

// ChannelResolver computes the eligible channel set for one notification.
// It is a pure function of its inputs: no I/O, no clock.
type ChannelResolver struct{}

// NewChannelResolver constructs the resolver.
func NewChannelResolver() *ChannelResolver {
	return &ChannelResolver{}
}

// Resolve filters the requested channel set (or the default set when empty)
// through, in order: the global preference toggle, the per-type override,
// and address resolvability. A channel failing any filter is dropped
// silently; a missing destination is an expected steady state, not a fault.
// The returned order follows the request order; an empty result is valid
// and means no delivery is attempted.
func (r *ChannelResolver) Resolve(t domain.NotificationType, requested []domain.ChannelKey, prefs *domain.Preference, contacts Contacts) []Resolution {
	if len(requested) == 0 {
		requested = domain.DefaultChannels()
	}

	resolutions := make([]Resolution, 0, len(requested))
	seen := make(map[domain.ChannelKey]struct{}, len(requested))

	for _, key := range requested {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !prefs.ChannelEnabled(key) {
			continue
		}
		if !prefs.TypeAllows(t, key) {
			continue
		}
		address := resolveAddress(key, prefs, contacts)
		if address == "" {
			continue
		}
		resolutions = append(resolutions, Resolution{Channel: key, Address: address})
	}
	return resolutions
}

func resolveAddress(key domain.ChannelKey, prefs *domain.Preference, contacts Contacts) string {
	switch key {
	case domain.ChannelInApp:
		return contacts.UserID
	case domain.ChannelEmail:
		if prefs.EmailAddress != nil {
			return *prefs.EmailAddress
		}
	case domain.ChannelChat:
		if prefs.ChatID != nil {
			return *prefs.ChatID
		}
	case domain.ChannelPush:
		return contacts.PushToken
	}
	return ""
}
