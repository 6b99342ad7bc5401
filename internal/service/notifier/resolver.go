package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// Target is one (recipient, device token, send time) tuple produced by
// the resolver.
type Target struct {
	UserID      uuid.UUID
	DeviceToken string
	Role        model.UserRole
	SendAt      time.Time
}

// ResolveTargets builds the recipient list for a lifecycle event:
// doctor entries first (immediate plus reminder one hour before), then
// patient entries (immediate plus reminder a day before), then one
// immediate entry per secretary. Recipients without a registered device
// token are silently skipped.
func (s *Service) ResolveTargets(ctx context.Context, appointment *model.Appointment, event model.NotificationType) ([]Target, error) {
	doctor, err := s.doctors.Get(ctx, appointment.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: doctor %s: %v", ErrAppointmentNotFound, appointment.DoctorID, err)
	}
	patient, err := s.patients.Get(ctx, appointment.PatientID)
	if err != nil {
		return nil, fmt.Errorf("%w: patient %s: %v", ErrAppointmentNotFound, appointment.PatientID, err)
	}

	now := s.now()
	targets := make([]Target, 0, 4)

	targets, err = s.appendRecipient(ctx, targets, doctor.UserID, model.UserRoleDoctor,
		now, appointment.DateHour.Add(-s.cfg.DoctorReminderOffset))
	if err != nil {
		return nil, err
	}

	targets, err = s.appendRecipient(ctx, targets, patient.UserID, model.UserRolePatient,
		now, appointment.DateHour.Add(-s.cfg.PatientReminderOffset))
	if err != nil {
		return nil, err
	}

	secretaries, err := s.users.ListByRole(ctx, model.UserRoleSecretary)
	if err != nil {
		return nil, fmt.Errorf("failed to list secretaries: %w", err)
	}
	for _, secretary := range secretaries {
		targets, err = s.appendRecipient(ctx, targets, secretary.ID, model.UserRoleSecretary, now)
		if err != nil {
			return nil, err
		}
	}

	return targets, nil
}

// appendRecipient adds one entry per send time when the user has a
// registered device token; tokenless users contribute nothing.
func (s *Service) appendRecipient(ctx context.Context, targets []Target, userID uuid.UUID, role model.UserRole, sendAts ...time.Time) ([]Target, error) {
	token, err := s.users.GetDeviceToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device token: %w", err)
	}
	if token == "" {
		return targets, nil
	}
	for _, sendAt := range sendAts {
		targets = append(targets, Target{
			UserID:      userID,
			DeviceToken: token,
			Role:        role,
			SendAt:      sendAt,
		})
	}
	return targets, nil
}
