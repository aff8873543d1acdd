package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/config"
	"github.com/spec-kit/notification-center/internal/domain"
)

func newDigestFixture(email, chat *mockChannel, prefs *fakePreferenceRepo) (*DigestService, DigestBuffer) {
	buffer := NewMemoryDigestBuffer()
	svc := NewDigestService(DigestDependencies{
		PreferenceRepo: prefs,
		Buffer:         buffer,
		Registry:       channel.NewRegistry(email, chat),
		QuietHours:     NewQuietHoursEvaluator(zap.NewNop()),
		Logger:         zap.NewNop(),
		Config:         config.NotificationConfig{AdapterTimeoutSeconds: 2, DigestMaxTitles: 10},
	})
	return svc, buffer
}

func buffered(id, userID, title string) domain.Notification {
	return domain.Notification{
		ID:     id,
		UserID: userID,
		Type:   domain.NotificationTicketCreated,
		Title:  title,
	}
}

func TestMemoryDigestBufferDrainSwaps(t *testing.T) {
	buffer := NewMemoryDigestBuffer()
	buffer.Enqueue("u1", buffered("n-1", "u1", "a"))
	buffer.Enqueue("u1", buffered("n-2", "u1", "b"))
	buffer.Enqueue("u2", buffered("n-3", "u2", "c"))

	assert.Equal(t, 2, buffer.Size("u1"))
	assert.ElementsMatch(t, []string{"u1", "u2"}, buffer.Users())

	drained := buffer.Drain("u1")
	require.Len(t, drained, 2)
	assert.Equal(t, 0, buffer.Size("u1"))
	assert.Empty(t, buffer.Drain("u1"), "drain is destructive")
	assert.Equal(t, 1, buffer.Size("u2"))
}

func TestMemoryDigestBufferConcurrentEnqueue(t *testing.T) {
	buffer := NewMemoryDigestBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buffer.Enqueue("u1", buffered(fmt.Sprintf("n-%d", i), "u1", "t"))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, buffer.Size("u1"))
}

func TestFlushSendsOneSummaryPerEnabledChannel(t *testing.T) {
	prefs := newFakePreferenceRepo()
	pref := activePrefs("u1")
	pref.DigestEnabled = true
	pref.DigestFrequency = domain.DigestDaily
	prefs.put(*pref)

	email := newMockChannel(domain.ChannelEmail)
	chat := newMockChannel(domain.ChannelChat)
	svc, _ := newDigestFixture(email, chat, prefs)

	svc.Enqueue("u1", buffered("n-1", "u1", "Ticket created"))
	svc.Enqueue("u1", buffered("n-2", "u1", "Ticket assigned"))

	reports, err := svc.Flush(context.Background(), domain.DigestDaily)
	require.NoError(t, err)

	report, ok := reports["u1"]
	require.True(t, ok)
	assert.Equal(t, 2, report.Items)
	assert.ElementsMatch(t, []domain.ChannelKey{domain.ChannelEmail, domain.ChannelChat}, report.Channels)
	assert.Empty(t, report.Errors)

	require.Equal(t, 1, email.sentCount())
	summary := email.sent[0].Notification
	assert.Equal(t, domain.NotificationDigest, summary.Type)
	assert.Contains(t, summary.Body, "You have 2 pending notification(s)")
	assert.Contains(t, summary.Body, "Ticket created")
	assert.Contains(t, summary.Body, "Ticket assigned")
	assert.Equal(t, "user@example.com", email.sent[0].Address)
}

func TestFlushSkipsUsersOnOtherFrequencies(t *testing.T) {
	prefs := newFakePreferenceRepo()
	daily := activePrefs("u1")
	daily.DigestEnabled = true
	daily.DigestFrequency = domain.DigestDaily
	prefs.put(*daily)

	weekly := activePrefs("u2")
	weekly.DigestEnabled = true
	weekly.DigestFrequency = domain.DigestWeekly
	prefs.put(*weekly)

	email := newMockChannel(domain.ChannelEmail)
	chat := newMockChannel(domain.ChannelChat)
	svc, buffer := newDigestFixture(email, chat, prefs)

	svc.Enqueue("u1", buffered("n-1", "u1", "a"))
	svc.Enqueue("u2", buffered("n-2", "u2", "b"))

	reports, err := svc.Flush(context.Background(), domain.DigestDaily)
	require.NoError(t, err)

	assert.Contains(t, reports, "u1")
	assert.NotContains(t, reports, "u2")
	assert.Equal(t, 1, buffer.Size("u2"), "weekly queue untouched by the daily flush")
}

func TestFlushFailedSendDropsEntries(t *testing.T) {
	prefs := newFakePreferenceRepo()
	pref := activePrefs("u1")
	pref.DigestEnabled = true
	pref.DigestFrequency = domain.DigestHourly
	pref.ChatEnabled = false
	prefs.put(*pref)

	email := newMockChannel(domain.ChannelEmail)
	email.sendFn = func(context.Context, channel.Payload) channel.Result {
		return channel.Result{Success: false, Channel: domain.ChannelEmail, Err: errors.New("smtp down")}
	}
	chat := newMockChannel(domain.ChannelChat)
	svc, buffer := newDigestFixture(email, chat, prefs)

	svc.Enqueue("u1", buffered("n-1", "u1", "a"))

	reports, err := svc.Flush(context.Background(), domain.DigestHourly)
	require.NoError(t, err)

	report := reports["u1"]
	assert.Equal(t, 1, report.Items)
	assert.Empty(t, report.Channels)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "smtp down")

	// entries are not requeued; the notification rows remain the record
	assert.Equal(t, 0, buffer.Size("u1"))
}

func TestFlushHourlyReleasesQuietDeferrals(t *testing.T) {
	prefs := newFakePreferenceRepo()
	// quiet-hours user without digest: deferred entries ride the hourly
	// tick once the window no longer covers the current time
	pref := activePrefs("u1")
	pref.QuietHoursEnabled = false
	prefs.put(*pref)

	email := newMockChannel(domain.ChannelEmail)
	chat := newMockChannel(domain.ChannelChat)
	svc, _ := newDigestFixture(email, chat, prefs)

	svc.Enqueue("u1", buffered("n-1", "u1", "deferred"))

	reports, err := svc.Flush(context.Background(), domain.DigestHourly)
	require.NoError(t, err)

	report, ok := reports["u1"]
	require.True(t, ok, "quiet deferral released once the window passed")
	assert.Equal(t, 1, report.Items)
	assert.Equal(t, 1, email.sentCount())
}

func TestComposeDigestCapsTitles(t *testing.T) {
	prefs := newFakePreferenceRepo()
	email := newMockChannel(domain.ChannelEmail)
	chat := newMockChannel(domain.ChannelChat)
	svc, _ := newDigestFixture(email, chat, prefs)

	items := make([]domain.Notification, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, buffered(fmt.Sprintf("n-%d", i), "u1", fmt.Sprintf("title %d", i)))
	}

	summary := svc.composeDigest("u1", items)
	assert.Equal(t, 10, strings.Count(summary.Body, "- "))
	assert.Contains(t, summary.Body, "...and 5 more")
	assert.Contains(t, summary.Title, "15 items")
}
