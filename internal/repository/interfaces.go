package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		UpdateDeviceToken(ctx context.Context, id uuid.UUID, token string) error
		// GetDeviceToken returns "" when the user has no registered device.
		GetDeviceToken(ctx context.Context, userID uuid.UUID) (string, error)
		ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error)
	}

	AppointmentTypeRepository interface {
		Create(ctx context.Context, appointmentType *model.AppointmentType) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentType, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentType, error)
		Deactivate(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListForDoctorOn returns non-canceled appointments of one doctor
		// on a calendar day, ordered by start time.
		ListForDoctorOn(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.Appointment, error)
		// HasConflict reports whether any non-canceled appointment of the
		// doctor overlaps [start, end), optionally excluding one instance.
		HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	}

	NotificationRepository interface {
		// ReplacePending deletes the appointment's pending rows and inserts
		// the new batch in one transaction.
		ReplacePending(ctx context.Context, appointmentID uuid.UUID, batch []*model.Notification) error
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Notification, error)
		// ListDue returns pending notifications whose send time has passed.
		ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Notification, error)
		MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	}
)
