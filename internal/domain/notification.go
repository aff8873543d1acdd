package domain

import "time"

// NotificationType enumerates the domain events that produce notifications.
type NotificationType string

const (
	NotificationTicketCreated       NotificationType = "TICKET_CREATED"
	NotificationTicketAssigned      NotificationType = "TICKET_ASSIGNED"
	NotificationTicketStatusChanged NotificationType = "TICKET_STATUS_CHANGED"
	NotificationTicketMessageAdded  NotificationType = "TICKET_MESSAGE_ADDED"
	NotificationSLABreach           NotificationType = "SLA_BREACH"
	NotificationRenewalWarning      NotificationType = "RENEWAL_WARNING"
	NotificationSystemAnnouncement  NotificationType = "SYSTEM_ANNOUNCEMENT"

	// NotificationDigest is synthesized by the digest flush, never stored.
	NotificationDigest NotificationType = "DIGEST"
)

// NotificationCategory groups types for display and preference purposes.
type NotificationCategory string

const (
	CategoryTicket  NotificationCategory = "TICKET"
	CategoryRenewal NotificationCategory = "RENEWAL"
	CategorySystem  NotificationCategory = "SYSTEM"
)

// Category derives the grouping for a notification type.
func (t NotificationType) Category() NotificationCategory {
	switch t {
	case NotificationTicketCreated, NotificationTicketAssigned,
		NotificationTicketStatusChanged, NotificationTicketMessageAdded,
		NotificationSLABreach:
		return CategoryTicket
	case NotificationRenewalWarning:
		return CategoryRenewal
	default:
		return CategorySystem
	}
}

// Notification is one delivered domain event, owned by its recipient.
// Immutable once created except for the Read flag.
type Notification struct {
	ID          string
	UserID      string
	Type        NotificationType
	Category    NotificationCategory
	Title       string
	Body        string
	ReferenceID *string
	DeepLink    *string
	Read        bool
	CreatedAt   time.Time
}
