package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/notifier"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type memAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *memAppointmentRepo) Create(_ context.Context, appointment *model.Appointment) error {
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	copied := *appointment
	return &copied, nil
}

func (r *memAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	out := make([]*model.Appointment, 0, len(r.appointments))
	for _, appointment := range r.appointments {
		out = append(out, appointment)
	}
	return out, nil
}

func (r *memAppointmentRepo) ListForDoctorOn(_ context.Context, _ uuid.UUID, _ time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *memAppointmentRepo) HasConflict(_ context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, appointment := range r.appointments {
		if appointment.DoctorID != doctorID || appointment.Status == model.AppointmentStatusCanceled {
			continue
		}
		if excludeID != nil && appointment.ID == *excludeID {
			continue
		}
		if appointment.DateHour.Before(end) && start.Before(appointment.End()) {
			return true, nil
		}
	}
	return false, nil
}

type memDoctorRepo struct{ doctor *model.Doctor }

func (r *memDoctorRepo) Create(_ context.Context, _ *model.Doctor) error { return nil }

func (r *memDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	if r.doctor == nil || r.doctor.ID != id {
		return nil, errors.New("no rows in result set")
	}
	return r.doctor, nil
}

func (r *memDoctorRepo) List(_ context.Context) ([]*model.Doctor, error) { return nil, nil }

type memPatientRepo struct{ patient *model.Patient }

func (r *memPatientRepo) Create(_ context.Context, _ *model.Patient) error { return nil }

func (r *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if r.patient == nil || r.patient.ID != id {
		return nil, errors.New("no rows in result set")
	}
	return r.patient, nil
}

func (r *memPatientRepo) List(_ context.Context) ([]*model.Patient, error) { return nil, nil }

type memTypeRepo struct{ appointmentType *model.AppointmentType }

func (r *memTypeRepo) Create(_ context.Context, _ *model.AppointmentType) error { return nil }

func (r *memTypeRepo) Get(_ context.Context, id uuid.UUID) (*model.AppointmentType, error) {
	if r.appointmentType == nil || r.appointmentType.ID != id {
		return nil, errors.New("no rows in result set")
	}
	return r.appointmentType, nil
}

func (r *memTypeRepo) ListByDoctor(_ context.Context, _ uuid.UUID) ([]*model.AppointmentType, error) {
	return nil, nil
}

func (r *memTypeRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }

type memUserRepo struct{}

func (r *memUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (r *memUserRepo) Get(_ context.Context, _ uuid.UUID) (*model.User, error) {
	return nil, errors.New("no rows in result set")
}

func (r *memUserRepo) UpdateDeviceToken(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (r *memUserRepo) GetDeviceToken(_ context.Context, _ uuid.UUID) (string, error) {
	return "", nil
}

func (r *memUserRepo) ListByRole(_ context.Context, _ model.UserRole) ([]*model.User, error) {
	return nil, nil
}

type memNotificationRepo struct{}

func (r *memNotificationRepo) ReplacePending(_ context.Context, _ uuid.UUID, _ []*model.Notification) error {
	return nil
}

func (r *memNotificationRepo) ListByAppointment(_ context.Context, _ uuid.UUID) ([]*model.Notification, error) {
	return nil, nil
}

func (r *memNotificationRepo) ListDue(_ context.Context, _ time.Time, _ int) ([]*model.Notification, error) {
	return nil, nil
}

func (r *memNotificationRepo) MarkSent(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type handlerFixture struct {
	router    *gin.Engine
	doctorID  uuid.UUID
	patientID uuid.UUID
	typeID    uuid.UUID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterCustomValidations()

	doctorID := uuid.New()
	patientID := uuid.New()
	typeID := uuid.New()

	appointments := &memAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
	doctors := &memDoctorRepo{doctor: &model.Doctor{ID: doctorID, UserID: uuid.New()}}
	patients := &memPatientRepo{patient: &model.Patient{ID: patientID, UserID: uuid.New(), Email: "paciente@example.com"}}
	types := &memTypeRepo{appointmentType: &model.AppointmentType{ID: typeID, DoctorID: doctorID, Name: "Odontología"}}

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	cfg := config.SchedulingConfig{
		WorkStart:             "08:00",
		WorkEnd:               "18:00",
		SlotMinutes:           30,
		DoctorReminderOffset:  time.Hour,
		PatientReminderOffset: 24 * time.Hour,
	}

	notifierSvc := notifier.NewService(&memUserRepo{}, doctors, patients, types, &memNotificationRepo{},
		cfg, log, metrics.New("handler_test", prometheus.NewRegistry()))
	schedulingSvc := scheduling.NewService(appointments, doctors, patients, types, notifierSvc, nil, cfg, log)

	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(schedulingSvc, notifierSvc, log).RegisterRoutes(api)

	return &handlerFixture{
		router:    router,
		doctorID:  doctorID,
		patientID: patientID,
		typeID:    typeID,
	}
}

func (f *handlerFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *handlerFixture) scheduleBody(dateHour string) map[string]interface{} {
	return map[string]interface{}{
		"patient_id":          f.patientID,
		"doctor_id":           f.doctorID,
		"appointment_type_id": f.typeID,
		"date_hour":           dateHour,
		"duration":            30,
		"modality":            "in_person",
		"place":               "Consultorio 3",
	}
}

func futureInstant() string {
	return time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
}

func TestScheduleEndpointCreates(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(futureInstant()))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope struct {
		Success bool              `json:"success"`
		Data    model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, model.AppointmentStatusProgrammed, envelope.Data.Status)
	assert.NotEqual(t, uuid.Nil, envelope.Data.ID)
}

func TestScheduleEndpointPastDate(t *testing.T) {
	f := newHandlerFixture(t)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	resp := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(past))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "past_date")
}

func TestScheduleEndpointConflict(t *testing.T) {
	f := newHandlerFixture(t)
	when := futureInstant()

	resp := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(when))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(when))
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "slot_conflict")
}

func TestScheduleEndpointRejectsBadModality(t *testing.T) {
	f := newHandlerFixture(t)

	body := f.scheduleBody(futureInstant())
	body["modality"] = "telepathy"

	resp := f.request(t, http.MethodPost, "/api/v1/appointments", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCancelEndpointTerminalConflict(t *testing.T) {
	f := newHandlerFixture(t)

	created := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(futureInstant()))
	require.Equal(t, http.StatusCreated, created.Code)

	var envelope struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &envelope))
	cancelPath := fmt.Sprintf("/api/v1/appointments/%s/cancel", envelope.Data.ID)

	resp := f.request(t, http.MethodPut, cancelPath, map[string]interface{}{"reason": "emergencia"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.request(t, http.MethodPut, cancelPath, map[string]interface{}{"reason": "otra vez"})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid_state")
}

func TestGetEndpointUnknownAppointment(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLifecycleEventAccepted(t *testing.T) {
	f := newHandlerFixture(t)

	created := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(futureInstant()))
	require.Equal(t, http.StatusCreated, created.Code)

	var envelope struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &envelope))

	resp := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/events", envelope.Data.ID), nil)
	assert.Equal(t, http.StatusAccepted, resp.Code)
}

func TestRescheduleEndpointInvalidDate(t *testing.T) {
	f := newHandlerFixture(t)

	created := f.request(t, http.MethodPost, "/api/v1/appointments", f.scheduleBody(futureInstant()))
	require.Equal(t, http.StatusCreated, created.Code)

	var envelope struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &envelope))

	resp := f.request(t, http.MethodPut,
		fmt.Sprintf("/api/v1/appointments/%s/reschedule", envelope.Data.ID),
		map[string]interface{}{"date_hour": "mañana", "reason": "cambio"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid_date")
}
