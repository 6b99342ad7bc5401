package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

const slotTimeLayout = "15:04"

// AvailableSlots computes the open start times of a doctor on a calendar
// day, formatted "HH:MM" in ascending order. A fully booked day returns
// an empty slice, not an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, apperrors.NotFound("doctor", err)
	}

	windowStart, windowEnd, step, err := s.workingWindow(doctor, date)
	if err != nil {
		return nil, fmt.Errorf("invalid working hours for doctor %s: %w", doctorID, err)
	}

	booked, err := s.appointments.ListForDoctorOn(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	slots := make([]string, 0)
	for t := windowStart; t.Before(windowEnd); t = t.Add(step) {
		if !slotBooked(t, booked) {
			slots = append(slots, t.Format(slotTimeLayout))
		}
	}
	return slots, nil
}

// slotBooked reports whether the slot start falls inside any booked
// interval [start, start+duration).
func slotBooked(slot time.Time, booked []*model.Appointment) bool {
	for _, appt := range booked {
		if appt.Status == model.AppointmentStatusCanceled {
			continue
		}
		if !slot.Before(appt.DateHour) && slot.Before(appt.End()) {
			return true
		}
	}
	return false
}

// workingWindow resolves the doctor's slot grid on the given day, falling
// back to the clinic-wide defaults where the doctor row is unset.
func (s *Service) workingWindow(doctor *model.Doctor, date time.Time) (start, end time.Time, step time.Duration, err error) {
	workStart := doctor.WorkStart
	if workStart == "" {
		workStart = s.cfg.WorkStart
	}
	workEnd := doctor.WorkEnd
	if workEnd == "" {
		workEnd = s.cfg.WorkEnd
	}
	slotMinutes := doctor.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = s.cfg.SlotMinutes
	}

	startOfDay, err := time.Parse(slotTimeLayout, workStart)
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("bad work_start %q: %w", workStart, err)
	}
	endOfDay, err := time.Parse(slotTimeLayout, workEnd)
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("bad work_end %q: %w", workEnd, err)
	}

	start = time.Date(date.Year(), date.Month(), date.Day(),
		startOfDay.Hour(), startOfDay.Minute(), 0, 0, date.Location())
	end = time.Date(date.Year(), date.Month(), date.Day(),
		endOfDay.Hour(), endOfDay.Minute(), 0, 0, date.Location())
	step = time.Duration(slotMinutes) * time.Minute
	return start, end, step, nil
}
