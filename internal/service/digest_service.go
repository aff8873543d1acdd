package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/observability"
	"github.com/spec-kit/notification-center/internal/repository"
)

// UserFlushReport summarizes one user's digest flush.
type UserFlushReport struct {
	Items    int
	Channels []domain.ChannelKey
	Errors   []string
}

// DigestService accumulates deferred notifications per user and flushes
// them as one summary message per enabled outbound channel.
type DigestService struct {
	prefs    repository.PreferenceRepository
	buffer   DigestBuffer
	registry *channel.Registry
	quiet    *QuietHoursEvaluator
	metrics  *observability.Metrics
	logger   *zap.Logger
	cfg      config.NotificationConfig
}

// DigestDependencies bundles collaborators for the digest service.
type DigestDependencies struct {
	PreferenceRepo repository.PreferenceRepository
	Buffer         DigestBuffer
	Registry       *channel.Registry
	QuietHours     *QuietHoursEvaluator
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Config         config.NotificationConfig
}

// NewDigestService constructs the service.
func NewDigestService(deps DigestDependencies) *DigestService {
	return &DigestService{
		prefs:    deps.PreferenceRepo,
		buffer:   deps.Buffer,
		registry: deps.Registry,
		quiet:    deps.QuietHours,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		cfg:      deps.Config,
	}
}

// Enqueue appends a notification to the user's pending digest queue.
func (s *DigestService) Enqueue(userID string, n domain.Notification) {
	s.buffer.Enqueue(userID, n)
	s.metrics.SetBufferedUsers(len(s.buffer.Users()))
	s.logger.Debug("notification buffered for digest",
		zap.String("user_id", userID),
		zap.String("notification_id", n.ID),
		zap.Int("queue_size", s.buffer.Size(userID)))
}

// Flush drains and delivers digests for every user whose digest frequency
// matches. The hourly flush additionally sweeps quiet-hours deferrals for
// users without an active digest, once their window has ended. Queues are
// swapped out before delivery: a failed digest send drops the buffered
// entries rather than requeueing them, since the notification rows remain
// durably queryable.
func (s *DigestService) Flush(ctx context.Context, freq domain.DigestFrequency) (map[string]UserFlushReport, error) {
	prefsList, err := s.prefs.ListDigestEnabled(ctx, freq)
	if err != nil {
		return nil, fmt.Errorf("list digest preferences: %w", err)
	}

	reports := make(map[string]UserFlushReport)
	totalItems := 0

	covered := make(map[string]struct{}, len(prefsList))
	for i := range prefsList {
		pref := &prefsList[i]
		covered[pref.UserID] = struct{}{}
		report := s.flushUser(ctx, pref)
		if report.Items > 0 {
			reports[pref.UserID] = report
			totalItems += report.Items
		}
	}

	if freq == domain.DigestHourly {
		s.flushQuietDeferred(ctx, covered, reports, &totalItems)
	}

	s.metrics.RecordDigestFlush(string(freq), totalItems)
	s.metrics.SetBufferedUsers(len(s.buffer.Users()))
	s.logger.Info("digest flush complete",
		zap.String("frequency", string(freq)),
		zap.Int("users", len(reports)),
		zap.Int("items", totalItems))
	return reports, nil
}

// flushQuietDeferred handles buffered entries for users whose deliveries
// were deferred by quiet hours alone. They ride the hourly trigger and are
// released as soon as the quiet window has passed.
func (s *DigestService) flushQuietDeferred(ctx context.Context, covered map[string]struct{}, reports map[string]UserFlushReport, totalItems *int) {
	now := time.Now()
	for _, userID := range s.buffer.Users() {
		if _, done := covered[userID]; done {
			continue
		}
		pref, err := s.prefs.GetByUser(ctx, userID)
		if err != nil {
			s.logger.Warn("load preferences for deferred flush",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if pref.DigestActive() {
			// a daily/weekly flush owns this queue
			continue
		}
		if s.quiet.IsQuiet(pref, now) {
			continue
		}
		report := s.flushUser(ctx, pref)
		if report.Items > 0 {
			reports[userID] = report
			*totalItems += report.Items
		}
	}
}

func (s *DigestService) flushUser(ctx context.Context, pref *domain.Preference) UserFlushReport {
	items := s.buffer.Drain(pref.UserID)
	if len(items) == 0 {
		return UserFlushReport{}
	}

	report := UserFlushReport{Items: len(items)}
	summary := s.composeDigest(pref.UserID, items)

	for _, key := range []domain.ChannelKey{domain.ChannelEmail, domain.ChannelChat} {
		if !pref.ChannelEnabled(key) {
			continue
		}
		address := resolveAddress(key, pref, Contacts{UserID: pref.UserID})
		if address == "" {
			continue
		}
		adapter, ok := s.registry.Lookup(key)
		if !ok || !adapter.IsAvailable() {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout())
		res := adapter.Send(sendCtx, channel.Payload{Notification: summary, Address: address})
		cancel()

		if res.Success {
			report.Channels = append(report.Channels, key)
			s.metrics.RecordDelivery(string(key), "digest_sent")
		} else {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, res.Err))
			s.metrics.RecordDelivery(string(key), "digest_failed")
			s.logger.Warn("digest delivery failed",
				zap.String("user_id", pref.UserID),
				zap.String("channel", string(key)),
				zap.Error(res.Err))
		}
	}
	return report
}

// composeDigest synthesizes the summary message. The result is not
// persisted; the underlying notifications are the system of record.
func (s *DigestService) composeDigest(userID string, items []domain.Notification) *domain.Notification {
	maxTitles := s.cfg.DigestMaxTitles
	if maxTitles <= 0 {
		maxTitles = 10
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d pending notification(s):\n", len(items))
	for i, item := range items {
		if i >= maxTitles {
			fmt.Fprintf(&b, "...and %d more\n", len(items)-maxTitles)
			break
		}
		fmt.Fprintf(&b, "- %s\n", item.Title)
	}

	return &domain.Notification{
		ID:        items[0].ID,
		UserID:    userID,
		Type:      domain.NotificationDigest,
		Category:  domain.CategorySystem,
		Title:     fmt.Sprintf("Notification digest (%d items)", len(items)),
		Body:      b.String(),
		CreatedAt: time.Now(),
	}
}
