package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/messaging"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// PushChannel is the broker channel the push gateway subscribes to.
const PushChannel = "push:notifications"

// Delivery drains due pending notifications: each poll publishes the
// batch to the push gateway channel and marks accepted rows as sent.
type Delivery struct {
	notifications repository.NotificationRepository
	broker        messaging.Broker
	config        config.WorkerConfig
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewDelivery(
	notifications repository.NotificationRepository,
	broker messaging.Broker,
	cfg config.WorkerConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Delivery {
	return &Delivery{
		notifications: notifications,
		broker:        broker,
		config:        cfg,
		logger:        log,
		metrics:       m,
		now:           time.Now,
	}
}

func (d *Delivery) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("starting notification delivery worker")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down notification delivery worker")
			return
		case <-ticker.C:
			if err := d.ProcessDue(ctx); err != nil {
				d.logger.Error(err, "failed to process due notifications")
			}
		}
	}
}

// ProcessDue drains one batch. A notification that cannot be published
// after the configured retries stays pending and is retried next poll.
func (d *Delivery) ProcessDue(ctx context.Context) error {
	timer := prometheus.NewTimer(d.metrics.DeliveryLatency)
	defer timer.ObserveDuration()

	due, err := d.notifications.ListDue(ctx, d.now(), d.config.BatchSize)
	if err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("list_due", "error").Inc()
		return fmt.Errorf("failed to list due notifications: %w", err)
	}
	d.metrics.DatabaseOperations.WithLabelValues("list_due", "success").Inc()

	for _, notification := range due {
		message := messaging.PushMessage{
			NotificationID: notification.ID.String(),
			AppointmentID:  notification.AppointmentID.String(),
			DeviceToken:    notification.DeviceToken,
			Title:          notification.Title,
			Body:           notification.Body,
		}

		err := retry(ctx, d.config.RetryAttempts, d.config.RetryDelay, func() error {
			return d.broker.Publish(ctx, PushChannel, message)
		})
		if err != nil {
			d.metrics.DeliveryFailures.Inc()
			d.logger.Error(err, "failed to publish notification",
				"notification_id", notification.ID.String())
			continue
		}

		if err := d.notifications.MarkSent(ctx, notification.ID, d.now()); err != nil {
			d.metrics.DatabaseOperations.WithLabelValues("mark_sent", "error").Inc()
			d.logger.Error(err, "failed to mark notification sent",
				"notification_id", notification.ID.String())
			continue
		}
		d.metrics.DatabaseOperations.WithLabelValues("mark_sent", "success").Inc()
		d.metrics.NotificationsDelivered.Inc()
	}

	return nil
}

// retry backs off between attempts but gives up immediately when the
// context is canceled, so shutdown is not held hostage by a dead broker.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
