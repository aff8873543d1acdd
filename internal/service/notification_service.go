package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/events"
)

// Sender is the orchestrator surface the event bridge needs.
type Sender interface {
	Send(ctx context.Context, input SendInput) (*domain.Notification, []ChannelOutcome, error)
	SendToRole(ctx context.Context, role domain.StaffRole, input SendInput) ([]string, []BulkFailure, error)
}

// NotificationService bridges domain events from the ticket and renewal
// collaborators into notification deliveries. Handler failures are logged
// and contained; the publishing side never observes them.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleSLABreached)
	n.dispatcher.Subscribe(events.EventRenewalExpiring, n.handleRenewalExpiring)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return n.badPayload(event)
	}
	return n.deliver(ctx, event, SendInput{
		UserID: event.RecipientID,
		Type:   domain.NotificationTicketCreated,
		Title:  fmt.Sprintf("Ticket %s created", payload.TicketKey),
		Body:   fmt.Sprintf("Your ticket %q was received and will be handled with %s priority.", payload.Title, payload.Priority),
	})
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return n.badPayload(event)
	}
	return n.deliver(ctx, event, SendInput{
		UserID: event.RecipientID,
		Type:   domain.NotificationTicketAssigned,
		Title:  fmt.Sprintf("Ticket %s assigned to you", payload.TicketKey),
		Body:   fmt.Sprintf("You are now the assignee of %q.", payload.Title),
	})
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return n.badPayload(event)
	}
	body := fmt.Sprintf("Ticket %q moved from %s to %s.", payload.Title, payload.OldStatus, payload.NewStatus)
	if payload.Comment != "" {
		body += " Comment: " + payload.Comment
	}
	return n.deliver(ctx, event, SendInput{
		UserID: event.RecipientID,
		Type:   domain.NotificationTicketStatusChanged,
		Title:  fmt.Sprintf("Ticket %s is now %s", payload.TicketKey, payload.NewStatus),
		Body:   body,
	})
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return n.badPayload(event)
	}
	return n.deliver(ctx, event, SendInput{
		UserID: event.RecipientID,
		Type:   domain.NotificationTicketMessageAdded,
		Title:  fmt.Sprintf("New reply on ticket %s", payload.TicketKey),
		Body:   fmt.Sprintf("%s wrote: %s", payload.AuthorName, payload.BodyPreview),
	})
}

// handleSLABreached fans out to every team lead in addition to the ticket
// assignee carried as the event recipient.
func (n *NotificationService) handleSLABreached(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLABreachedPayload)
	if !ok {
		return n.badPayload(event)
	}
	input := SendInput{
		Type:  domain.NotificationSLABreach,
		Title: fmt.Sprintf("SLA breached on ticket %s", payload.TicketKey),
		Body: fmt.Sprintf("Ticket %q (%s priority) missed its SLA target of %s.",
			payload.Title, payload.Priority, payload.DueAt.Format("2006-01-02 15:04")),
	}

	if event.RecipientID != "" {
		assignee := input
		assignee.UserID = event.RecipientID
		if err := n.deliver(ctx, event, assignee); err != nil {
			n.logger.Warn("sla notification to assignee failed",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	recipients, failures, err := n.sender.SendToRole(ctx, domain.StaffRoleTeamLead, input)
	if err != nil {
		n.logger.Error("sla role fan-out failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	for _, failure := range failures {
		n.logger.Warn("sla notification failed for recipient",
			zap.String("user_id", failure.UserID), zap.Error(failure.Err))
	}
	n.logger.Info("sla breach fan-out complete",
		zap.String("event_id", event.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int("failures", len(failures)))
	return nil
}

func (n *NotificationService) handleRenewalExpiring(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RenewalExpiringPayload)
	if !ok {
		return n.badPayload(event)
	}
	return n.deliver(ctx, event, SendInput{
		UserID:      event.RecipientID,
		Type:        domain.NotificationRenewalWarning,
		Title:       fmt.Sprintf("%s expires in %d day(s)", payload.ProductName, payload.DaysLeft),
		Body:        fmt.Sprintf("Your subscription to %s expires on %s. Renew to keep support coverage.", payload.ProductName, payload.ExpiresAt.Format("2006-01-02")),
		ReferenceID: &payload.RenewalID,
	})
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, input SendInput) error {
	if input.UserID == "" {
		n.logger.Warn("event without recipient",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return nil
	}
	if _, _, err := n.sender.Send(ctx, input); err != nil {
		// fire-and-forget toward the event publisher; the error stays here
		n.logger.Error("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", input.UserID),
			zap.Error(err))
	}
	return nil
}

func (n *NotificationService) badPayload(event events.Event) error {
	n.logger.Warn("unexpected event payload",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}
