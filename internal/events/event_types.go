package events

import (
	"time"

	"github.com/spec-kit/notification-center/internal/domain"
)

// EventType enumerates the domain events the notification center reacts to.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventSLABreached         EventType = "sla_breached"
	EventRenewalExpiring     EventType = "renewal_expiring"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by the ticket and renewal
// collaborators. RecipientID names the user the event concerns; handlers
// decide the actual notification audience.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	RecipientID string      `json:"recipient_id"`
	TicketID    *string     `json:"ticket_id,omitempty"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketKey string `json:"ticket_key"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketKey       string  `json:"ticket_key"`
	Title           string  `json:"title"`
	AssigneeStaffID *string `json:"assignee_staff_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketKey string `json:"ticket_key"`
	Title     string `json:"title"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Comment   string `json:"comment,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	TicketKey   string `json:"ticket_key"`
	Title       string `json:"title"`
	AuthorName  string `json:"author_name"`
	BodyPreview string `json:"body_preview"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	TicketKey string    `json:"ticket_key"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	DueAt     time.Time `json:"due_at"`
}

// RenewalExpiringPayload payload.
type RenewalExpiringPayload struct {
	RenewalID   string    `json:"renewal_id"`
	ProductName string    `json:"product_name"`
	ExpiresAt   time.Time `json:"expires_at"`
	DaysLeft    int       `json:"days_left"`
}
