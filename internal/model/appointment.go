package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusRequested  AppointmentStatus = "REQUESTED"
	AppointmentStatusProgrammed AppointmentStatus = "PROGRAMMED"
	AppointmentStatusFinished   AppointmentStatus = "FINISHED"
	AppointmentStatusCanceled   AppointmentStatus = "CANCELED"
	AppointmentStatusMissed     AppointmentStatus = "MISSED"
)

type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVirtual  Modality = "virtual"
)

// AppointmentType is a bookable service template owned by a doctor.
// Types are never hard-deleted; deactivation flips the active flag.
type AppointmentType struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	DoctorID           uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Name               string    `db:"name" json:"name"`
	GeneralCostCents   int64     `db:"general_cost_cents" json:"general_cost_cents"`
	CommunityCostCents int64     `db:"community_cost_cents" json:"community_cost_cents"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment is one scheduled occurrence of an AppointmentType.
type Appointment struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	PatientID         uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	AppointmentTypeID uuid.UUID         `db:"appointment_type_id" json:"appointment_type_id"`
	DateHour          time.Time         `db:"date_hour" json:"date_hour"`
	DurationMinutes   int               `db:"duration_minutes" json:"duration_minutes"`
	Modality          Modality          `db:"modality" json:"modality"`
	Place             string            `db:"place" json:"place,omitempty"`
	Status            AppointmentStatus `db:"status" json:"status"`
	Reason            *string           `db:"reason" json:"reason,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// End returns the exclusive end of the booked interval.
func (a *Appointment) End() time.Time {
	return a.DateHour.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsTerminal reports whether the appointment can still change schedule.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusFinished || a.Status == AppointmentStatusCanceled
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
