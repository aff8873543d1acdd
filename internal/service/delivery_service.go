package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/observability"
	"github.com/spec-kit/notification-center/internal/realtime"
	"github.com/spec-kit/notification-center/internal/repository"
)

// SendInput describes one notification to deliver. Channels may be empty,
// in which case the default set applies.
type SendInput struct {
	UserID      string
	Type        domain.NotificationType
	Title       string
	Body        string
	ReferenceID *string
	DeepLink    *string
	Channels    []domain.ChannelKey
}

// ChannelOutcome reports what happened on one resolved channel.
type ChannelOutcome struct {
	Channel  domain.ChannelKey
	Status   domain.DeliveryStatus
	Buffered bool
	Error    string
}

// DeliveryService is the delivery orchestrator: it persists the
// notification, resolves channels, gates immediate vs. buffered delivery,
// fans out to adapters concurrently and records every outcome. A call to
// Send never fails because a downstream channel failed; the worst outcome
// is a notification whose delivery logs are all FAILED, which the retry
// pipeline recovers.
type DeliveryService struct {
	notifications repository.NotificationRepository
	logs          repository.DeliveryLogRepository
	pushTokens    repository.PushTokenRepository
	users         repository.UserRepository
	preferences   *PreferenceService
	resolver      *ChannelResolver
	quiet         *QuietHoursEvaluator
	digest        *DigestService
	registry      *channel.Registry
	publisher     realtime.Publisher
	metrics       *observability.Metrics
	logger        *zap.Logger
	cfg           config.NotificationConfig

	now func() time.Time
}

// DeliveryDependencies bundles collaborators for the orchestrator.
type DeliveryDependencies struct {
	NotificationRepo repository.NotificationRepository
	DeliveryLogRepo  repository.DeliveryLogRepository
	PushTokenRepo    repository.PushTokenRepository
	UserRepo         repository.UserRepository
	Preferences      *PreferenceService
	Resolver         *ChannelResolver
	QuietHours       *QuietHoursEvaluator
	Digest           *DigestService
	Registry         *channel.Registry
	Publisher        realtime.Publisher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewDeliveryService constructs the orchestrator.
func NewDeliveryService(deps DeliveryDependencies) *DeliveryService {
	return &DeliveryService{
		notifications: deps.NotificationRepo,
		logs:          deps.DeliveryLogRepo,
		pushTokens:    deps.PushTokenRepo,
		users:         deps.UserRepo,
		preferences:   deps.Preferences,
		resolver:      deps.Resolver,
		quiet:         deps.QuietHours,
		digest:        deps.Digest,
		registry:      deps.Registry,
		publisher:     deps.Publisher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		cfg:           deps.Config,
		now:           time.Now,
	}
}

// Send delivers one notification. The notification row and the pending
// delivery logs are durably written before any adapter is invoked, so a
// crash mid-delivery leaves a recoverable trail.
func (s *DeliveryService) Send(ctx context.Context, input SendInput) (*domain.Notification, []ChannelOutcome, error) {
	prefs, err := s.preferences.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load preferences: %w", err)
	}

	notification := &domain.Notification{
		UserID:      input.UserID,
		Type:        input.Type,
		Category:    input.Type.Category(),
		Title:       input.Title,
		Body:        input.Body,
		ReferenceID: input.ReferenceID,
		DeepLink:    input.DeepLink,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, nil, fmt.Errorf("create notification: %w", err)
	}

	// one-way best-effort push to connected clients
	s.publisher.PublishNotification(ctx, notification)

	contacts := Contacts{UserID: input.UserID}
	if token, err := s.pushTokens.FirstForUser(ctx, input.UserID); err == nil {
		contacts.PushToken = token
	} else {
		s.logger.Warn("push token lookup failed",
			zap.String("user_id", input.UserID), zap.Error(err))
	}

	resolutions := s.resolver.Resolve(input.Type, input.Channels, prefs, contacts)
	resolutions = s.dropUnavailable(resolutions)
	if len(resolutions) == 0 {
		// valid steady state, recorded as a no-op
		s.logger.Info("no eligible channels resolved",
			zap.String("notification_id", notification.ID),
			zap.String("user_id", input.UserID),
			zap.String("type", string(input.Type)))
		return notification, nil, nil
	}

	// Quiet hours and digest mode both defer outbound channels to the
	// digest buffer. In-app is exempt and always delivered immediately:
	// it is considered non-interruptive, a deliberate channel-specific
	// exception rather than an oversight.
	deferOutbound := prefs.DigestActive() || s.quiet.IsQuiet(prefs, s.now())

	immediate := resolutions[:0:0]
	outcomes := make([]ChannelOutcome, 0, len(resolutions))
	buffered := false
	for _, res := range resolutions {
		if deferOutbound && res.Channel != domain.ChannelInApp {
			buffered = true
			outcomes = append(outcomes, ChannelOutcome{
				Channel:  res.Channel,
				Buffered: true,
			})
			continue
		}
		immediate = append(immediate, res)
	}
	if buffered {
		// one buffer entry per notification, however many channels deferred
		s.digest.Enqueue(input.UserID, *notification)
	}

	delivered := s.deliverAll(ctx, notification, immediate)
	return notification, append(outcomes, delivered...), nil
}

// BulkFailure records one recipient's failure inside a bulk send.
type BulkFailure struct {
	UserID string
	Err    error
}

// SendBulk fans out one notification to many recipients, bounded by the
// configured concurrency. Per-recipient failures are collected, never
// aborting the batch.
func (s *DeliveryService) SendBulk(ctx context.Context, userIDs []string, input SendInput) []BulkFailure {
	limit := int64(s.cfg.BulkConcurrency)
	if limit <= 0 {
		limit = 8
	}
	sem := semaphore.NewWeighted(limit)

	var (
		mu       sync.Mutex
		failures []BulkFailure
		wg       sync.WaitGroup
	)

	for _, userID := range userIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, BulkFailure{UserID: userID, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			defer sem.Release(1)

			perUser := input
			perUser.UserID = userID
			if _, _, err := s.Send(ctx, perUser); err != nil {
				mu.Lock()
				failures = append(failures, BulkFailure{UserID: userID, Err: err})
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()
	return failures
}

// SendToRole fans out to every active directory member holding the role.
func (s *DeliveryService) SendToRole(ctx context.Context, role domain.StaffRole, input SendInput) ([]string, []BulkFailure, error) {
	userIDs, err := s.users.ListIDsByRole(ctx, role)
	if err != nil {
		return nil, nil, fmt.Errorf("list role members: %w", err)
	}
	return userIDs, s.SendBulk(ctx, userIDs, input), nil
}

// dropUnavailable removes channels whose adapter is missing or currently
// unavailable. This is a configuration condition, not a fault.
func (s *DeliveryService) dropUnavailable(resolutions []Resolution) []Resolution {
	kept := resolutions[:0:0]
	for _, res := range resolutions {
		adapter, ok := s.registry.Lookup(res.Channel)
		if !ok || !adapter.IsAvailable() {
			s.logger.Debug("channel unavailable, dropped",
				zap.String("channel", string(res.Channel)))
			continue
		}
		kept = append(kept, res)
	}
	return kept
}

// deliverAll writes pending delivery logs for every resolution, then fans
// out to the adapters concurrently. Channel deliveries are isolated: a
// panic or failure in one never affects its siblings.
func (s *DeliveryService) deliverAll(ctx context.Context, n *domain.Notification, resolutions []Resolution) []ChannelOutcome {
	if len(resolutions) == 0 {
		return nil
	}

	entries := make([]*domain.DeliveryLog, 0, len(resolutions))
	outcomes := make([]ChannelOutcome, len(resolutions))

	for i, res := range resolutions {
		entry := &domain.DeliveryLog{
			NotificationID:   n.ID,
			Channel:          res.Channel,
			Status:           domain.DeliveryPending,
			RecipientAddress: res.Address,
		}
		if err := s.logs.Create(ctx, entry); err != nil {
			// without a durable trail we do not attempt the adapter call
			s.logger.Error("create delivery log",
				zap.String("notification_id", n.ID),
				zap.String("channel", string(res.Channel)),
				zap.Error(err))
			outcomes[i] = ChannelOutcome{
				Channel: res.Channel,
				Status:  domain.DeliveryFailed,
				Error:   err.Error(),
			}
			entries = append(entries, nil)
			continue
		}
		entries = append(entries, entry)
	}

	var wg sync.WaitGroup
	for i, res := range resolutions {
		if entries[i] == nil {
			continue
		}
		wg.Add(1)
		go func(i int, res Resolution) {
			defer wg.Done()
			outcomes[i] = s.deliverOne(ctx, n, res, entries[i])
		}(i, res)
	}
	wg.Wait()
	return outcomes
}

// deliverOne performs a single bounded adapter call and records its
// terminal outcome on the pending log entry.
func (s *DeliveryService) deliverOne(ctx context.Context, n *domain.Notification, res Resolution, entry *domain.DeliveryLog) (outcome ChannelOutcome) {
	outcome = ChannelOutcome{Channel: res.Channel}

	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("adapter panic: %v", r)
			s.logger.Error("channel adapter panicked",
				zap.String("channel", string(res.Channel)),
				zap.String("notification_id", n.ID),
				zap.Any("panic", r))
			s.recordFailure(ctx, entry, errMsg)
			outcome.Status = domain.DeliveryFailed
			outcome.Error = errMsg
		}
	}()

	adapter, ok := s.registry.Lookup(res.Channel)
	if !ok {
		s.recordFailure(ctx, entry, "channel not registered")
		outcome.Status = domain.DeliveryFailed
		outcome.Error = "channel not registered"
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout())
	defer cancel()

	result := adapter.Send(sendCtx, channel.Payload{Notification: n, Address: res.Address})
	if result.Success {
		sentAt := result.Timestamp
		if sentAt.IsZero() {
			sentAt = s.now()
		}
		applied, err := s.logs.UpdateOutcome(ctx, entry.ID, domain.DeliveryPending, repository.DeliveryOutcome{
			Status:            domain.DeliverySent,
			ExternalMessageID: result.MessageID,
			SentAt:            &sentAt,
		})
		if err != nil || !applied {
			s.logger.Warn("record delivery success",
				zap.String("delivery_log_id", entry.ID),
				zap.Bool("applied", applied),
				zap.Error(err))
		}
		s.metrics.RecordDelivery(string(res.Channel), string(domain.DeliverySent))
		outcome.Status = domain.DeliverySent
		return outcome
	}

	errMsg := "delivery failed"
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	s.recordFailure(ctx, entry, errMsg)
	outcome.Status = domain.DeliveryFailed
	outcome.Error = errMsg
	return outcome
}

func (s *DeliveryService) recordFailure(ctx context.Context, entry *domain.DeliveryLog, errMsg string) {
	applied, err := s.logs.UpdateOutcome(ctx, entry.ID, domain.DeliveryPending, repository.DeliveryOutcome{
		Status:       domain.DeliveryFailed,
		ErrorMessage: &errMsg,
	})
	if err != nil || !applied {
		s.logger.Warn("record delivery failure",
			zap.String("delivery_log_id", entry.ID),
			zap.Bool("applied", applied),
			zap.Error(err))
	}
	s.metrics.RecordDelivery(string(entry.Channel), string(domain.DeliveryFailed))
}
