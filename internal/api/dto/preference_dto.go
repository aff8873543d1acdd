package dto

import (
	"time"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
)

// PreferenceUpdateRequest is a partial preference update; omitted fields
// are left untouched.
type PreferenceUpdateRequest struct {
	InAppEnabled *bool `json:"in_app_enabled,omitempty"`
	EmailEnabled *bool `json:"email_enabled,omitempty"`
	ChatEnabled  *bool `json:"chat_enabled,omitempty"`
	PushEnabled  *bool `json:"push_enabled,omitempty"`

	EmailAddress *string `json:"email_address,omitempty"`
	ChatID       *string `json:"chat_id,omitempty"`

	DigestEnabled   *bool   `json:"digest_enabled,omitempty"`
	DigestFrequency *string `json:"digest_frequency,omitempty"`
	DigestTime      *string `json:"digest_time,omitempty"`

	QuietHoursEnabled *bool   `json:"quiet_hours_enabled,omitempty"`
	QuietHoursStart   *string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd     *string `json:"quiet_hours_end,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
}

// TypeSettingRequest sets one event-type/channel override.
type TypeSettingRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Enabled *bool  `json:"enabled"`
}

// PreferenceResponse is the wire shape of a preference row.
type PreferenceResponse struct {
	UserID string `json:"user_id"`

	InAppEnabled bool `json:"in_app_enabled"`
	EmailEnabled bool `json:"email_enabled"`
	ChatEnabled  bool `json:"chat_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	EmailAddress *string `json:"email_address,omitempty"`
	ChatID       *string `json:"chat_id,omitempty"`

	DigestEnabled   bool   `json:"digest_enabled"`
	DigestFrequency string `json:"digest_frequency"`
	DigestTime      string `json:"digest_time"`

	QuietHoursEnabled bool   `json:"quiet_hours_enabled"`
	QuietHoursStart   string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd     string `json:"quiet_hours_end,omitempty"`
	Timezone          string `json:"timezone"`

	TypeSettings domain.TypeSettings `json:"type_settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromPreference maps a domain preference.
func FromPreference(p *domain.Preference) PreferenceResponse {
	return PreferenceResponse{
		UserID:            p.UserID,
		InAppEnabled:      p.InAppEnabled,
		EmailEnabled:      p.EmailEnabled,
		ChatEnabled:       p.ChatEnabled,
		PushEnabled:       p.PushEnabled,
		EmailAddress:      p.EmailAddress,
		ChatID:            p.ChatID,
		DigestEnabled:     p.DigestEnabled,
		DigestFrequency:   string(p.DigestFrequency),
		DigestTime:        p.DigestTime,
		QuietHoursEnabled: p.QuietHoursEnabled,
		QuietHoursStart:   p.QuietHoursStart,
		QuietHoursEnd:     p.QuietHoursEnd,
		Timezone:          p.Timezone,
		TypeSettings:      p.TypeSettings,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToPatch converts the update request into a repository patch.
func (r PreferenceUpdateRequest) ToPatch() repository.PreferencePatch {
	patch := repository.PreferencePatch{
		InAppEnabled:      r.InAppEnabled,
		EmailEnabled:      r.EmailEnabled,
		ChatEnabled:       r.ChatEnabled,
		PushEnabled:       r.PushEnabled,
		EmailAddress:      r.EmailAddress,
		ChatID:            r.ChatID,
		DigestEnabled:     r.DigestEnabled,
		DigestTime:        r.DigestTime,
		QuietHoursEnabled: r.QuietHoursEnabled,
		QuietHoursStart:   r.QuietHoursStart,
		QuietHoursEnd:     r.QuietHoursEnd,
		Timezone:          r.Timezone,
	}
	if r.DigestFrequency != nil {
		freq := domain.DigestFrequency(*r.DigestFrequency)
		patch.DigestFrequency = &freq
	}
	return patch
}

// ValidDigestFrequency reports whether the wire value is an allowed frequency.
func ValidDigestFrequency(value string) bool {
	switch domain.DigestFrequency(value) {
	case domain.DigestRealtime, domain.DigestHourly, domain.DigestDaily, domain.DigestWeekly:
		return true
	default:
		return false
	}
}
