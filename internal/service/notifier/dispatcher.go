package notifier

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicore/clinic-api/internal/model"
)

// Dispatch supersedes any pending batch for the appointment with one row
// per resolved target. Delete and insert run in a single transaction and
// dispatches for the same appointment are serialized, so two concurrent
// reschedules cannot leave a mixed or doubled batch.
func (s *Service) Dispatch(ctx context.Context, appointment *model.Appointment, event model.NotificationType, targets []Target) error {
	release := s.locks.acquire(appointment.ID)
	defer release()

	timer := prometheus.NewTimer(s.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	typeName := ""
	if appointmentType, err := s.types.Get(ctx, appointment.AppointmentTypeID); err == nil {
		typeName = appointmentType.Name
	}

	now := s.now()
	batch := make([]*model.Notification, 0, len(targets))
	for _, target := range targets {
		batch = append(batch, &model.Notification{
			ID:            uuid.New(),
			UserID:        target.UserID,
			DeviceToken:   target.DeviceToken,
			AppointmentID: appointment.ID,
			Type:          event,
			Title:         Title(event),
			Body:          Body(appointment, typeName, event, target.Role),
			Status:        model.NotificationStatusPending,
			CreatedAt:     now,
			SendTime:      target.SendAt,
		})
	}

	if err := s.notifications.ReplacePending(ctx, appointment.ID, batch); err != nil {
		s.metrics.DispatchFailures.Inc()
		return &DispatchError{Err: err}
	}

	s.metrics.NotificationsDispatched.Add(float64(len(batch)))
	s.logger.Debug("notification batch dispatched",
		"appointment_id", appointment.ID.String(),
		"event", string(event),
		"targets", len(batch))
	return nil
}
