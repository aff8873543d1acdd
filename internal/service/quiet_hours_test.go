package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
)

func quietPrefs(start, end, tz string) *domain.Preference {
	return &domain.Preference{
		UserID:            "u1",
		QuietHoursEnabled: true,
		QuietHoursStart:   start,
		QuietHoursEnd:     end,
		Timezone:          tz,
	}
}

func atUTC(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestIsQuietOvernightWindow(t *testing.T) {
	eval := NewQuietHoursEvaluator(zap.NewNop())
	prefs := quietPrefs("22:00", "07:00", "UTC")

	assert.True(t, eval.IsQuiet(prefs, atUTC(23, 30)))
	assert.True(t, eval.IsQuiet(prefs, atUTC(3, 0)))
	assert.False(t, eval.IsQuiet(prefs, atUTC(12, 0)))
	assert.False(t, eval.IsQuiet(prefs, atUTC(7, 0)), "end boundary is exclusive")
	assert.True(t, eval.IsQuiet(prefs, atUTC(22, 0)), "start boundary is inclusive")
}

func TestIsQuietSameDayWindow(t *testing.T) {
	eval := NewQuietHoursEvaluator(zap.NewNop())
	prefs := quietPrefs("13:00", "14:00", "UTC")

	assert.True(t, eval.IsQuiet(prefs, atUTC(13, 30)))
	assert.False(t, eval.IsQuiet(prefs, atUTC(14, 0)))
	assert.False(t, eval.IsQuiet(prefs, atUTC(12, 59)))
}

func TestIsQuietEvaluatesInUserTimezone(t *testing.T) {
	eval := NewQuietHoursEvaluator(zap.NewNop())
	prefs := quietPrefs("22:00", "07:00", "America/New_York")

	// 03:00 UTC is 22:00 or 23:00 in New York year round
	assert.True(t, eval.IsQuiet(prefs, atUTC(3, 0)))
	// 16:00 UTC is mid-morning to noon in New York
	assert.False(t, eval.IsQuiet(prefs, atUTC(16, 0)))
}

func TestIsQuietDisabledOrMissingWindow(t *testing.T) {
	eval := NewQuietHoursEvaluator(zap.NewNop())

	prefs := quietPrefs("22:00", "07:00", "UTC")
	prefs.QuietHoursEnabled = false
	assert.False(t, eval.IsQuiet(prefs, atUTC(23, 0)))

	prefs = quietPrefs("", "", "UTC")
	assert.False(t, eval.IsQuiet(prefs, atUTC(23, 0)))

	assert.False(t, eval.IsQuiet(nil, atUTC(23, 0)))
}

func TestIsQuietFailsOpenOnBadConfig(t *testing.T) {
	eval := NewQuietHoursEvaluator(zap.NewNop())

	assert.False(t, eval.IsQuiet(quietPrefs("25:00", "07:00", "UTC"), atUTC(23, 0)))
	assert.False(t, eval.IsQuiet(quietPrefs("22:00", "07:61", "UTC"), atUTC(23, 0)))
	assert.False(t, eval.IsQuiet(quietPrefs("late", "early", "UTC"), atUTC(23, 0)))
	assert.False(t, eval.IsQuiet(quietPrefs("22:00", "07:00", "Mars/Olympus"), atUTC(23, 0)))
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"08:30", 510, true},
		{"23:59", 1439, true},
		{" 07:15 ", 435, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseMinutes(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
