package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
)

func newRetryFixture(email *mockChannel) (*RetryService, *fakeNotificationRepo, *fakeDeliveryLogRepo) {
	notifications := newFakeNotificationRepo()
	logs := newFakeDeliveryLogRepo()
	svc := NewRetryService(RetryDependencies{
		DeliveryLogRepo:  logs,
		NotificationRepo: notifications,
		Registry:         channel.NewRegistry(email),
		Logger:           zap.NewNop(),
		Config: config.NotificationConfig{
			AdapterTimeoutSeconds: 2,
			RetryMaxAttempts:      3,
			RetryBatchSize:        50,
		},
	})
	return svc, notifications, logs
}

func seedFailedDelivery(t *testing.T, notifications *fakeNotificationRepo, logs *fakeDeliveryLogRepo, retryCount int) *domain.DeliveryLog {
	t.Helper()
	ctx := context.Background()

	n := &domain.Notification{UserID: "u1", Type: domain.NotificationTicketCreated, Title: "t", Body: "b"}
	require.NoError(t, notifications.Create(ctx, n))

	entry := &domain.DeliveryLog{
		NotificationID:   n.ID,
		Channel:          domain.ChannelEmail,
		Status:           domain.DeliveryPending,
		RecipientAddress: "user@example.com",
	}
	require.NoError(t, logs.Create(ctx, entry))
	_, err := logs.UpdateOutcome(ctx, entry.ID, domain.DeliveryPending, repositoryOutcomeFailed())
	require.NoError(t, err)
	for i := 0; i < retryCount; i++ {
		require.NoError(t, logs.IncrementRetry(ctx, entry.ID, "still failing"))
	}
	entry.Status = domain.DeliveryFailed
	entry.RetryCount = retryCount
	return entry
}

func TestSweepRetriesAndMarksSent(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	svc, notifications, logs := newRetryFixture(email)
	entry := seedFailedDelivery(t, notifications, logs, 1)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Loaded: 1, Succeeded: 1}, report)
	assert.Equal(t, 1, email.sentCount())

	stored := logs.store[entry.ID]
	assert.Equal(t, domain.DeliverySent, stored.Status)
	assert.NotNil(t, stored.SentAt)
	// a successful retry never bumps the count
	assert.Equal(t, 1, stored.RetryCount)
}

func TestSweepFailureIncrementsRetryCount(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	email.sendFn = func(context.Context, channel.Payload) channel.Result {
		return channel.Result{Success: false, Channel: domain.ChannelEmail, Err: errors.New("still refusing")}
	}
	svc, notifications, logs := newRetryFixture(email)
	entry := seedFailedDelivery(t, notifications, logs, 0)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Loaded: 1, Failed: 1}, report)

	stored := logs.store[entry.ID]
	assert.Equal(t, domain.DeliveryFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "still refusing", *stored.ErrorMessage)
}

func TestSweepExcludesEntriesAtCap(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	svc, notifications, logs := newRetryFixture(email)
	seedFailedDelivery(t, notifications, logs, 3)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, report)
	assert.Equal(t, 0, email.sentCount(), "capped entries stay FAILED permanently")
}

func TestSweepSkipsUnavailableChannelWithoutBurningRetry(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	email.available = false
	svc, notifications, logs := newRetryFixture(email)
	entry := seedFailedDelivery(t, notifications, logs, 1)

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Loaded: 1, Skipped: 1}, report)
	assert.Equal(t, 1, logs.store[entry.ID].RetryCount)
}

func TestSweepFailsEntryWhoseNotificationIsGone(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	svc, notifications, logs := newRetryFixture(email)
	entry := seedFailedDelivery(t, notifications, logs, 0)
	require.NoError(t, notifications.Delete(context.Background(), entry.NotificationID, "u1"))

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Loaded: 1, Failed: 1}, report)
	assert.Equal(t, 0, email.sentCount())
	assert.Equal(t, 1, logs.store[entry.ID].RetryCount)
}

func TestSweepConcurrentResolutionCountsAsSkip(t *testing.T) {
	email := newMockChannel(domain.ChannelEmail)
	svc, notifications, logs := newRetryFixture(email)
	entry := seedFailedDelivery(t, notifications, logs, 0)

	// another sweep resolves the entry between page load and send
	email.sendFn = func(context.Context, channel.Payload) channel.Result {
		sentAt := time.Now()
		_, _ = logs.UpdateOutcome(context.Background(), entry.ID, domain.DeliveryFailed, repositoryOutcomeSent(&sentAt))
		id := "m"
		return channel.Result{Success: true, Channel: domain.ChannelEmail, MessageID: &id, Timestamp: sentAt}
	}

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Loaded: 1, Skipped: 1}, report)
}

func repositoryOutcomeFailed() repository.DeliveryOutcome {
	msg := "initial failure"
	return repository.DeliveryOutcome{Status: domain.DeliveryFailed, ErrorMessage: &msg}
}

func repositoryOutcomeSent(sentAt *time.Time) repository.DeliveryOutcome {
	return repository.DeliveryOutcome{Status: domain.DeliverySent, SentAt: sentAt}
}
