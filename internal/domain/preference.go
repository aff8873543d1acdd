package domain

import "time"

// DigestFrequency controls how often buffered notifications are flushed.
type DigestFrequency string

const (
	DigestRealtime DigestFrequency = "REALTIME"
	DigestHourly   DigestFrequency = "HOURLY"
	DigestDaily    DigestFrequency = "DAILY"
	DigestWeekly   DigestFrequency = "WEEKLY"
)

// TypeSettings maps event type -> channel -> explicit override. An entry of
// false suppresses the channel for that type even when the global toggle is
// on; an entry of true never re-enables a globally disabled channel.
type TypeSettings map[NotificationType]map[ChannelKey]bool

// Preference holds one user's notification configuration. Rows are created
// lazily with system defaults on first send and mutated only through explicit
// preference-update operations.
type Preference struct {
	UserID string

	InAppEnabled bool
	EmailEnabled bool
	ChatEnabled  bool
	PushEnabled  bool

	EmailAddress *string
	ChatID       *string

	DigestEnabled   bool
	DigestFrequency DigestFrequency
	DigestTime      string // "HH:MM" in the user's timezone

	QuietHoursEnabled bool
	QuietHoursStart   string // "HH:MM"
	QuietHoursEnd     string // "HH:MM"
	Timezone          string

	TypeSettings TypeSettings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreference builds the system defaults applied on lazy creation:
// in-app and email on, digest off, quiet hours off.
func DefaultPreference(userID, email, timezone string) *Preference {
	pref := &Preference{
		UserID:          userID,
		InAppEnabled:    true,
		EmailEnabled:    true,
		DigestFrequency: DigestRealtime,
		DigestTime:      "08:00",
		Timezone:        timezone,
		TypeSettings:    TypeSettings{},
	}
	if email != "" {
		pref.EmailAddress = &email
	}
	return pref
}

// ChannelEnabled reports the global toggle for the given channel.
func (p *Preference) ChannelEnabled(key ChannelKey) bool {
	switch key {
	case ChannelInApp:
		return p.InAppEnabled
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelChat:
		return p.ChatEnabled
	case ChannelPush:
		return p.PushEnabled
	default:
		return false
	}
}

// TypeAllows reports whether the per-type override permits the channel for
// the given event type. Absence of an override permits.
func (p *Preference) TypeAllows(t NotificationType, key ChannelKey) bool {
	overrides, ok := p.TypeSettings[t]
	if !ok {
		return true
	}
	enabled, ok := overrides[key]
	if !ok {
		return true
	}
	return enabled
}

// DigestActive reports whether deliveries should be buffered for a later
// digest flush instead of sent immediately.
func (p *Preference) DigestActive() bool {
	return p.DigestEnabled && p.DigestFrequency != DigestRealtime && p.DigestFrequency != ""
}
