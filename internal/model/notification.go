package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeCreation     NotificationType = "CREATION"
	NotificationTypeCancellation NotificationType = "CANCELLATION"
	NotificationTypeReschedule   NotificationType = "RESCHEDULE"
	NotificationTypeCommunity    NotificationType = "COMMUNITY"
	NotificationTypeOther        NotificationType = "OTHER"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
)

// Notification is one persisted push awaiting pickup by the delivery
// worker. The device token is snapshotted at dispatch time so a later
// token rotation does not reroute an already scheduled reminder.
type Notification struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	UserID        uuid.UUID          `db:"user_id" json:"user_id"`
	DeviceToken   string             `db:"device_token" json:"device_token"`
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	Type          NotificationType   `db:"type" json:"type"`
	Title         string             `db:"title" json:"title"`
	Body          string             `db:"body" json:"body"`
	Status        NotificationStatus `db:"status" json:"status"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	SendTime      time.Time          `db:"send_time" json:"send_time"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
}
