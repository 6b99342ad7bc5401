package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
)

// Notifier receives lifecycle events after an appointment changes.
// Failures in the pipeline never propagate back to the scheduling caller.
type Notifier interface {
	AppointmentChanged(ctx context.Context, appointment *model.Appointment, event model.NotificationType) error
}

// Mailer sends the booking confirmation to the patient.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to string, appointment *model.Appointment, typeName string) error
}

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	types        repository.AppointmentTypeRepository
	notifier     Notifier
	mailer       Mailer
	cfg          config.SchedulingConfig
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	types repository.AppointmentTypeRepository,
	notifier Notifier,
	mailer Mailer,
	cfg config.SchedulingConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		types:        types,
		notifier:     notifier,
		mailer:       mailer,
		cfg:          cfg,
		logger:       log,
		now:          time.Now,
	}
}

// ScheduleRequest carries one scheduling attempt. DateHour stays a string
// until validation so an unparseable value maps to ErrInvalidDate instead
// of failing at the transport layer.
type ScheduleRequest struct {
	PatientID         uuid.UUID
	DoctorID          uuid.UUID
	AppointmentTypeID uuid.UUID
	DateHour          string
	DurationMinutes   int
	Modality          model.Modality
	Place             string

	// AppointmentID confirms an existing REQUESTED instance instead of
	// creating a new one.
	AppointmentID *uuid.UUID
}

// Schedule validates and persists a booking. Validation reasons are
// distinct: invalid instant, past instant, slot conflict, in that order.
func (s *Service) Schedule(ctx context.Context, req *ScheduleRequest) (*model.Appointment, error) {
	when, err := time.Parse(time.RFC3339, req.DateHour)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if req.DurationMinutes <= 0 {
		return nil, apperrors.BadRequest("duration must be positive", nil)
	}
	if req.Modality == model.ModalityInPerson && req.Place == "" {
		return nil, apperrors.BadRequest("place is required for in-person appointments", nil)
	}

	if when.Before(s.now()) {
		return nil, ErrPastDate
	}

	end := when.Add(time.Duration(req.DurationMinutes) * time.Minute)
	conflict, err := s.appointments.HasConflict(ctx, req.DoctorID, when, end, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}

	var appointment *model.Appointment
	if req.AppointmentID != nil {
		appointment, err = s.confirmRequested(ctx, *req.AppointmentID, req, when)
	} else {
		appointment, err = s.createProgrammed(ctx, req, when)
	}
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, appointment, model.NotificationTypeCreation)
	return appointment, nil
}

func (s *Service) createProgrammed(ctx context.Context, req *ScheduleRequest, when time.Time) (*model.Appointment, error) {
	appointment := &model.Appointment{
		ID:                uuid.New(),
		PatientID:         req.PatientID,
		DoctorID:          req.DoctorID,
		AppointmentTypeID: req.AppointmentTypeID,
		DateHour:          when,
		DurationMinutes:   req.DurationMinutes,
		Modality:          req.Modality,
		Place:             req.Place,
		Status:            model.AppointmentStatusProgrammed,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return appointment, nil
}

// confirmRequested transitions a patient-initiated REQUESTED instance to
// PROGRAMMED with the supplied doctor and slot.
func (s *Service) confirmRequested(ctx context.Context, id uuid.UUID, req *ScheduleRequest, when time.Time) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	if appointment.Status != model.AppointmentStatusRequested {
		return nil, ErrInvalidState
	}

	appointment.DoctorID = req.DoctorID
	appointment.DateHour = when
	appointment.DurationMinutes = req.DurationMinutes
	appointment.Modality = req.Modality
	appointment.Place = req.Place
	appointment.Status = model.AppointmentStatusProgrammed

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to confirm appointment: %w", err)
	}
	return appointment, nil
}

// Reschedule moves an existing appointment to a new instant. A terminal
// instance (finished or canceled) cannot be moved.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, dateHour, reason string) (*model.Appointment, error) {
	when, err := time.Parse(time.RFC3339, dateHour)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if when.Before(s.now()) {
		return nil, ErrPastDate
	}

	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	if appointment.IsTerminal() {
		return nil, ErrInvalidState
	}

	end := when.Add(time.Duration(appointment.DurationMinutes) * time.Minute)
	conflict, err := s.appointments.HasConflict(ctx, appointment.DoctorID, when, end, &appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}

	appointment.DateHour = when
	appointment.Reason = &reason
	appointment.Status = model.AppointmentStatusProgrammed

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}

	s.afterChange(ctx, appointment, model.NotificationTypeReschedule)
	return appointment, nil
}

// Cancel puts an appointment in its terminal CANCELED state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	if appointment.IsTerminal() {
		return nil, ErrInvalidState
	}

	appointment.Status = model.AppointmentStatusCanceled
	appointment.Reason = &reason

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.afterChange(ctx, appointment, model.NotificationTypeCancellation)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// afterChange runs the notification pipeline and the confirmation mail.
// The appointment state is already committed and authoritative; failures
// here are logged and swallowed, never returned to the caller.
func (s *Service) afterChange(ctx context.Context, appointment *model.Appointment, event model.NotificationType) {
	if s.notifier != nil {
		if err := s.notifier.AppointmentChanged(ctx, appointment, event); err != nil {
			s.logger.Error(err, "notification pipeline failed",
				"appointment_id", appointment.ID.String(),
				"event", string(event))
		}
	}

	if s.mailer != nil && event == model.NotificationTypeCreation {
		s.sendConfirmation(ctx, appointment)
	}
}

func (s *Service) sendConfirmation(ctx context.Context, appointment *model.Appointment) {
	patient, err := s.patients.Get(ctx, appointment.PatientID)
	if err != nil {
		s.logger.Error(err, "confirmation mail skipped, patient lookup failed",
			"appointment_id", appointment.ID.String())
		return
	}

	typeName := ""
	if appointmentType, err := s.types.Get(ctx, appointment.AppointmentTypeID); err == nil {
		typeName = appointmentType.Name
	}

	if err := s.mailer.SendBookingConfirmation(ctx, patient.Email, appointment, typeName); err != nil {
		s.logger.Error(err, "confirmation mail failed",
			"appointment_id", appointment.ID.String())
	}
}
