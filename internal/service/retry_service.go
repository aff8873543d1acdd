package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/observability"
	"github.com/spec-kit/notification-center/internal/repository"
)

// SweepReport summarizes one retry sweep.
type SweepReport struct {
	Loaded    int
	Succeeded int
	Failed    int
	Skipped   int
}

// RetryService re-attempts failed deliveries up to the configured cap.
// RetryCount counts failed re-attempts: a successful retry leaves it
// unchanged. Entries at the cap are never selected again and stay FAILED
// permanently; surfacing them is an operator concern served by the
// delivery-log query API.
type RetryService struct {
	logs          repository.DeliveryLogRepository
	notifications repository.NotificationRepository
	registry      *channel.Registry
	metrics       *observability.Metrics
	logger        *zap.Logger
	cfg           config.NotificationConfig

	now func() time.Time
}

// RetryDependencies bundles collaborators for the retry pipeline.
type RetryDependencies struct {
	DeliveryLogRepo  repository.DeliveryLogRepository
	NotificationRepo repository.NotificationRepository
	Registry         *channel.Registry
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewRetryService constructs the pipeline.
func NewRetryService(deps RetryDependencies) *RetryService {
	return &RetryService{
		logs:          deps.DeliveryLogRepo,
		notifications: deps.NotificationRepo,
		registry:      deps.Registry,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		cfg:           deps.Config,
		now:           time.Now,
	}
}

// Sweep loads one page of retryable entries and re-attempts each delivery
// with the payload rebuilt from the stored notification. Status updates are
// optimistic (update-where-status) so overlapping sweeps under slow I/O
// cannot clobber each other.
func (s *RetryService) Sweep(ctx context.Context) (SweepReport, error) {
	s.metrics.RecordRetrySweep()

	maxRetries := s.cfg.RetryMaxAttempts
	if maxRetries <= 0 {
		maxRetries = 3
	}
	batch := s.cfg.RetryBatchSize
	if batch <= 0 {
		batch = 50
	}

	entries, err := s.logs.ListRetryable(ctx, maxRetries, batch)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list retryable deliveries: %w", err)
	}

	report := SweepReport{Loaded: len(entries)}
	for i := range entries {
		switch s.retryOne(ctx, &entries[i]) {
		case retrySucceeded:
			report.Succeeded++
		case retryFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	if report.Loaded > 0 {
		s.logger.Info("retry sweep complete",
			zap.Int("loaded", report.Loaded),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped))
	}
	return report, nil
}

type retryOutcome int

const (
	retrySkipped retryOutcome = iota
	retrySucceeded
	retryFailed
)

func (s *RetryService) retryOne(ctx context.Context, entry *domain.DeliveryLog) retryOutcome {
	notification, err := s.notifications.GetByID(ctx, entry.NotificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// recipient deleted the notification; retrying is pointless
			s.failRetry(ctx, entry, "notification no longer exists")
			return retryFailed
		}
		s.logger.Warn("load notification for retry",
			zap.String("delivery_log_id", entry.ID), zap.Error(err))
		return retrySkipped
	}

	adapter, ok := s.registry.Lookup(entry.Channel)
	if !ok || !adapter.IsAvailable() {
		// channel still unavailable; leave the entry for a later sweep
		// without burning a retry
		s.metrics.RecordRetryAttempt("skipped")
		return retrySkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout())
	result := adapter.Send(sendCtx, channel.Payload{
		Notification: notification,
		Address:      entry.RecipientAddress,
	})
	cancel()

	if result.Success {
		sentAt := result.Timestamp
		if sentAt.IsZero() {
			sentAt = s.now()
		}
		applied, err := s.logs.UpdateOutcome(ctx, entry.ID, domain.DeliveryFailed, repository.DeliveryOutcome{
			Status:            domain.DeliverySent,
			ExternalMessageID: result.MessageID,
			SentAt:            &sentAt,
		})
		if err != nil {
			s.logger.Warn("record retry success",
				zap.String("delivery_log_id", entry.ID), zap.Error(err))
			return retrySkipped
		}
		if !applied {
			// a concurrent sweep already resolved this entry
			s.metrics.RecordRetryAttempt("skipped")
			return retrySkipped
		}
		s.metrics.RecordRetryAttempt("succeeded")
		s.logger.Info("delivery retry succeeded",
			zap.String("delivery_log_id", entry.ID),
			zap.String("channel", string(entry.Channel)))
		return retrySucceeded
	}

	errMsg := "delivery failed"
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	s.failRetry(ctx, entry, errMsg)
	return retryFailed
}

func (s *RetryService) failRetry(ctx context.Context, entry *domain.DeliveryLog, errMsg string) {
	if err := s.logs.IncrementRetry(ctx, entry.ID, errMsg); err != nil {
		s.logger.Warn("record retry failure",
			zap.String("delivery_log_id", entry.ID), zap.Error(err))
		return
	}
	s.metrics.RecordRetryAttempt("failed")
	if entry.RetryCount+1 >= s.retryCap() {
		s.logger.Error("delivery reached retry cap; terminal failure",
			zap.String("delivery_log_id", entry.ID),
			zap.String("notification_id", entry.NotificationID),
			zap.String("channel", string(entry.Channel)),
			zap.String("error", errMsg))
	}
}

func (s *RetryService) retryCap() int {
	if s.cfg.RetryMaxAttempts <= 0 {
		return 3
	}
	return s.cfg.RetryMaxAttempts
}
