package models

import "time"

// Delivery outcome recorded in the audit log.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// PushSubscription holds one delivery descriptor per participant. A new
// registration replaces the previous device's descriptor.
type PushSubscription struct {
	ParticipantID    string    `gorm:"primaryKey;size:64"`
	SubscriptionJSON string    `gorm:"type:text;not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// NotificationLog is the append-only audit trail of delivery attempts.
type NotificationLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID string    `gorm:"size:64;not null;index" json:"participantId"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	Status        string    `gorm:"size:16;not null" json:"status"`
	ErrorMessage  string    `gorm:"type:text" json:"errorMessage,omitempty"`
	SentAt        time.Time `gorm:"not null;index" json:"sentAt"`
}
