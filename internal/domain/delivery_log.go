package domain

import "time"

// DeliveryStatus tracks the lifecycle of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliverySent      DeliveryStatus = "SENT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
	DeliveryBounced   DeliveryStatus = "BOUNCED"
)

// Terminal reports whether the status is final. A terminal entry never
// regresses to PENDING.
func (s DeliveryStatus) Terminal() bool {
	return s != DeliveryPending && s != ""
}

// DeliveryLog is the durable record of one attempt to deliver one
// notification on one channel. RetryCount counts re-attempts that failed,
// not total attempts; a successful retry leaves it unchanged.
type DeliveryLog struct {
	ID                string
	NotificationID    string
	Channel           ChannelKey
	Status            DeliveryStatus
	RecipientAddress  string
	ExternalMessageID *string
	ErrorMessage      *string
	RetryCount        int
	SentAt            *time.Time
	DeliveredAt       *time.Time
	CreatedAt         time.Time
}
