package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// PushMessage is the payload handed to the push gateway channel for a
// single accepted notification.
type PushMessage struct {
	NotificationID string `json:"notification_id"`
	AppointmentID  string `json:"appointment_id"`
	DeviceToken    string `json:"device_token"`
	Title          string `json:"title"`
	Body           string `json:"body"`
}
