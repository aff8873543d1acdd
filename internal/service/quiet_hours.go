package service

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
)

// QuietHoursEvaluator decides whether a user is inside their configured
// do-not-disturb window. Any configuration or timezone error fails open:
// a broken window must never silently suppress notifications.
type QuietHoursEvaluator struct {
	logger *zap.Logger
}

// NewQuietHoursEvaluator constructs the evaluator.
func NewQuietHoursEvaluator(logger *zap.Logger) *QuietHoursEvaluator {
	return &QuietHoursEvaluator{logger: logger}
}

// IsQuiet reports whether now falls inside the user's quiet window.
// Overnight windows (start > end, e.g. 22:00-07:00) wrap past midnight.
func (e *QuietHoursEvaluator) IsQuiet(prefs *domain.Preference, now time.Time) bool {
	if prefs == nil || !prefs.QuietHoursEnabled {
		return false
	}
	if prefs.QuietHoursStart == "" || prefs.QuietHoursEnd == "" {
		return false
	}

	start, ok := parseMinutes(prefs.QuietHoursStart)
	if !ok {
		e.logger.Warn("malformed quiet hours start; failing open",
			zap.String("user_id", prefs.UserID),
			zap.String("start", prefs.QuietHoursStart))
		return false
	}
	end, ok := parseMinutes(prefs.QuietHoursEnd)
	if !ok {
		e.logger.Warn("malformed quiet hours end; failing open",
			zap.String("user_id", prefs.UserID),
			zap.String("end", prefs.QuietHoursEnd))
		return false
	}

	tz := prefs.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		e.logger.Warn("unknown timezone; failing open",
			zap.String("user_id", prefs.UserID),
			zap.String("timezone", tz),
			zap.Error(err))
		return false
	}

	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()

	if start > end {
		// overnight wraparound
		return current >= start || current < end
	}
	return current >= start && current < end
}

// parseMinutes converts "HH:MM" to minutes since midnight.
func parseMinutes(value string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
