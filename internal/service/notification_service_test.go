package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/events"
)

type recordingSender struct {
	sent      []SendInput
	roleSends []domain.StaffRole
	sendErr   error
}

func (s *recordingSender) Send(_ context.Context, input SendInput) (*domain.Notification, []ChannelOutcome, error) {
	s.sent = append(s.sent, input)
	if s.sendErr != nil {
		return nil, nil, s.sendErr
	}
	return &domain.Notification{ID: "n-1", UserID: input.UserID}, nil, nil
}

func (s *recordingSender) SendToRole(_ context.Context, role domain.StaffRole, input SendInput) ([]string, []BulkFailure, error) {
	s.roleSends = append(s.roleSends, role)
	return []string{"lead-1"}, nil, nil
}

func newBridgeFixture() (*recordingSender, events.Dispatcher) {
	sender := &recordingSender{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, sender, zap.NewNop()).RegisterHandlers()
	return sender, dispatcher
}

func TestBridgeTicketCreatedEvent(t *testing.T) {
	sender, dispatcher := newBridgeFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "evt-1",
		Type:        events.EventTicketCreated,
		RecipientID: "u1",
		Payload: events.TicketCreatedPayload{
			TicketKey: "HD-42",
			Title:     "Printer on fire",
			Priority:  "HIGH",
		},
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	input := sender.sent[0]
	assert.Equal(t, "u1", input.UserID)
	assert.Equal(t, domain.NotificationTicketCreated, input.Type)
	assert.Contains(t, input.Title, "HD-42")
	assert.Contains(t, input.Body, "Printer on fire")
}

func TestBridgeSLABreachNotifiesAssigneeAndTeamLeads(t *testing.T) {
	sender, dispatcher := newBridgeFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "evt-2",
		Type:        events.EventSLABreached,
		RecipientID: "agent-1",
		Payload: events.SLABreachedPayload{
			TicketKey: "HD-9",
			Title:     "VPN down",
			Priority:  "CRITICAL",
			DueAt:     time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "agent-1", sender.sent[0].UserID)
	assert.Equal(t, []domain.StaffRole{domain.StaffRoleTeamLead}, sender.roleSends)
}

func TestBridgeContainsSenderFailure(t *testing.T) {
	sender, dispatcher := newBridgeFixture()
	sender.sendErr = errors.New("postgres gone")

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "evt-3",
		Type:        events.EventTicketAssigned,
		RecipientID: "u1",
		Payload:     events.TicketAssignedPayload{TicketKey: "HD-1", Title: "t"},
	})
	assert.NoError(t, err, "the publisher never sees handler failures")
}

func TestBridgeIgnoresMalformedPayload(t *testing.T) {
	sender, dispatcher := newBridgeFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "evt-4",
		Type:        events.EventTicketCreated,
		RecipientID: "u1",
		Payload:     "not a struct",
	})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestBridgeSkipsEventWithoutRecipient(t *testing.T) {
	sender, dispatcher := newBridgeFixture()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:      "evt-5",
		Type:    events.EventRenewalExpiring,
		Payload: events.RenewalExpiringPayload{RenewalID: "r-1", ProductName: "Support Plus", DaysLeft: 14, ExpiresAt: time.Now()},
	})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}
