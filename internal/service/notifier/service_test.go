package notifier

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[uuid.UUID]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uuid.UUID]*model.User),
		tokens: make(map[uuid.UUID]string),
	}
}

func (r *fakeUserRepo) add(role model.UserRole, token string) uuid.UUID {
	id := uuid.New()
	r.users[id] = &model.User{ID: id, Role: role}
	if token != "" {
		r.tokens[id] = token
	}
	return id
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return user, nil
}

func (r *fakeUserRepo) UpdateDeviceToken(_ context.Context, id uuid.UUID, token string) error {
	r.tokens[id] = token
	return nil
}

func (r *fakeUserRepo) GetDeviceToken(_ context.Context, userID uuid.UUID) (string, error) {
	return r.tokens[userID], nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role model.UserRole) ([]*model.User, error) {
	out := make([]*model.User, 0)
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *fakeDoctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return doctor, nil
}

func (r *fakeDoctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	return nil, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(_ context.Context, patient *model.Patient) error {
	r.patients[patient.ID] = patient
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, ok := r.patients[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return patient, nil
}

func (r *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	return nil, nil
}

type fakeTypeRepo struct {
	types map[uuid.UUID]*model.AppointmentType
}

func (r *fakeTypeRepo) Create(_ context.Context, appointmentType *model.AppointmentType) error {
	r.types[appointmentType.ID] = appointmentType
	return nil
}

func (r *fakeTypeRepo) Get(_ context.Context, id uuid.UUID) (*model.AppointmentType, error) {
	appointmentType, ok := r.types[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return appointmentType, nil
}

func (r *fakeTypeRepo) ListByDoctor(_ context.Context, _ uuid.UUID) ([]*model.AppointmentType, error) {
	return nil, nil
}

func (r *fakeTypeRepo) Deactivate(_ context.Context, _ uuid.UUID) error {
	return nil
}

type fakeNotificationRepo struct {
	byAppointment map[uuid.UUID][]*model.Notification
	replaceCalls  int
	replaceErr    error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byAppointment: make(map[uuid.UUID][]*model.Notification)}
}

func (r *fakeNotificationRepo) ReplacePending(_ context.Context, appointmentID uuid.UUID, batch []*model.Notification) error {
	r.replaceCalls++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	kept := make([]*model.Notification, 0)
	for _, notification := range r.byAppointment[appointmentID] {
		if notification.Status != model.NotificationStatusPending {
			kept = append(kept, notification)
		}
	}
	r.byAppointment[appointmentID] = append(kept, batch...)
	return nil
}

func (r *fakeNotificationRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.Notification, error) {
	return r.byAppointment[appointmentID], nil
}

func (r *fakeNotificationRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*model.Notification, error) {
	out := make([]*model.Notification, 0)
	for _, batch := range r.byAppointment {
		for _, notification := range batch {
			if notification.Status == model.NotificationStatusPending && !notification.SendTime.After(now) {
				out = append(out, notification)
			}
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	for _, batch := range r.byAppointment {
		for _, notification := range batch {
			if notification.ID == id {
				notification.Status = model.NotificationStatusSent
				notification.SentAt = &sentAt
				return nil
			}
		}
	}
	return errors.New("no rows in result set")
}

type notifierFixture struct {
	svc           *Service
	users         *fakeUserRepo
	doctors       *fakeDoctorRepo
	patients      *fakePatientRepo
	types         *fakeTypeRepo
	notifications *fakeNotificationRepo

	appointment   *model.Appointment
	doctorUserID  uuid.UUID
	patientUserID uuid.UUID
	now           time.Time
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()

	f := &notifierFixture{
		users:         newFakeUserRepo(),
		doctors:       &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)},
		patients:      &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)},
		types:         &fakeTypeRepo{types: make(map[uuid.UUID]*model.AppointmentType)},
		notifications: newFakeNotificationRepo(),
		now:           time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC),
	}

	f.doctorUserID = f.users.add(model.UserRoleDoctor, "token-doctor")
	f.patientUserID = f.users.add(model.UserRolePatient, "token-patient")

	doctorID := uuid.New()
	patientID := uuid.New()
	typeID := uuid.New()
	f.doctors.doctors[doctorID] = &model.Doctor{ID: doctorID, UserID: f.doctorUserID}
	f.patients.patients[patientID] = &model.Patient{ID: patientID, UserID: f.patientUserID}
	f.types.types[typeID] = &model.AppointmentType{ID: typeID, DoctorID: doctorID, Name: "Odontología", Active: true}

	f.appointment = &model.Appointment{
		ID:                uuid.New(),
		PatientID:         patientID,
		DoctorID:          doctorID,
		AppointmentTypeID: typeID,
		DateHour:          time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes:   30,
		Modality:          model.ModalityInPerson,
		Place:             "Consultorio 3",
		Status:            model.AppointmentStatusProgrammed,
	}

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	cfg := config.SchedulingConfig{
		DoctorReminderOffset:  time.Hour,
		PatientReminderOffset: 24 * time.Hour,
	}

	f.svc = NewService(f.users, f.doctors, f.patients, f.types, f.notifications, cfg, log,
		metrics.New("notifier_test", prometheus.NewRegistry()))
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestResolveTargetsOrdering(t *testing.T) {
	f := newNotifierFixture(t)
	secretaryID := f.users.add(model.UserRoleSecretary, "token-secretary")

	targets, err := f.svc.ResolveTargets(context.Background(), f.appointment, model.NotificationTypeCreation)
	require.NoError(t, err)
	require.Len(t, targets, 5)

	assert.Equal(t, model.UserRoleDoctor, targets[0].Role)
	assert.Equal(t, f.now, targets[0].SendAt)
	assert.Equal(t, model.UserRoleDoctor, targets[1].Role)
	assert.Equal(t, f.appointment.DateHour.Add(-time.Hour), targets[1].SendAt)

	assert.Equal(t, model.UserRolePatient, targets[2].Role)
	assert.Equal(t, f.now, targets[2].SendAt)
	assert.Equal(t, model.UserRolePatient, targets[3].Role)
	assert.Equal(t, f.appointment.DateHour.Add(-24*time.Hour), targets[3].SendAt)

	assert.Equal(t, model.UserRoleSecretary, targets[4].Role)
	assert.Equal(t, secretaryID, targets[4].UserID)
	assert.Equal(t, f.now, targets[4].SendAt)
}

func TestResolveTargetsSkipsTokenlessRecipients(t *testing.T) {
	f := newNotifierFixture(t)
	delete(f.users.tokens, f.doctorUserID)
	f.users.add(model.UserRoleSecretary, "")

	targets, err := f.svc.ResolveTargets(context.Background(), f.appointment, model.NotificationTypeCreation)
	require.NoError(t, err)

	require.Len(t, targets, 2)
	for _, target := range targets {
		assert.Equal(t, model.UserRolePatient, target.Role)
		assert.Equal(t, "token-patient", target.DeviceToken)
	}
}

func TestResolveTargetsUnresolvableDoctor(t *testing.T) {
	f := newNotifierFixture(t)
	f.appointment.DoctorID = uuid.New()

	_, err := f.svc.ResolveTargets(context.Background(), f.appointment, model.NotificationTypeCreation)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestResolveTargetsUnresolvablePatient(t *testing.T) {
	f := newNotifierFixture(t)
	f.appointment.PatientID = uuid.New()

	_, err := f.svc.ResolveTargets(context.Background(), f.appointment, model.NotificationTypeCreation)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDispatchWritesPendingBatch(t *testing.T) {
	f := newNotifierFixture(t)

	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeCreation))

	batch, err := f.notifications.ListByAppointment(context.Background(), f.appointment.ID)
	require.NoError(t, err)
	require.Len(t, batch, 4)

	for _, notification := range batch {
		assert.Equal(t, model.NotificationStatusPending, notification.Status)
		assert.Equal(t, model.NotificationTypeCreation, notification.Type)
		assert.Equal(t, "Nueva Cita", notification.Title)
		assert.NotEmpty(t, notification.Body)
		assert.NotEmpty(t, notification.DeviceToken)
		assert.Equal(t, f.now, notification.CreatedAt)
	}
}

func TestDispatchSupersedesPendingBatch(t *testing.T) {
	f := newNotifierFixture(t)

	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeCreation))
	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeReschedule))

	batch, err := f.notifications.ListByAppointment(context.Background(), f.appointment.ID)
	require.NoError(t, err)
	require.Len(t, batch, 4)
	for _, notification := range batch {
		assert.Equal(t, model.NotificationTypeReschedule, notification.Type)
	}
}

func TestDispatchPersistenceFailure(t *testing.T) {
	f := newNotifierFixture(t)
	f.notifications.replaceErr = errors.New("connection reset")

	err := f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeCreation)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.ErrorIs(t, err, f.notifications.replaceErr)
}

func TestDispatchNoTargetsClearsPending(t *testing.T) {
	f := newNotifierFixture(t)
	delete(f.users.tokens, f.doctorUserID)
	delete(f.users.tokens, f.patientUserID)

	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeCancellation))

	batch, err := f.notifications.ListByAppointment(context.Background(), f.appointment.ID)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, 1, f.notifications.replaceCalls)
}

func TestDispatchReleasesAppointmentLock(t *testing.T) {
	f := newNotifierFixture(t)

	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeCreation))
	require.NoError(t, f.svc.AppointmentChanged(context.Background(), f.appointment, model.NotificationTypeReschedule))

	f.svc.locks.mu.Lock()
	defer f.svc.locks.mu.Unlock()
	assert.Empty(t, f.svc.locks.entries)
}

func TestAppointmentLocksDropEntryAfterLastHolder(t *testing.T) {
	locks := appointmentLocks{entries: make(map[uuid.UUID]*appointmentLock)}
	id := uuid.New()

	first := locks.acquire(id)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release := locks.acquire(id)
		release()
	}()

	first()
	wg.Wait()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}

func TestEventForStatus(t *testing.T) {
	cases := []struct {
		status model.AppointmentStatus
		event  model.NotificationType
	}{
		{model.AppointmentStatusProgrammed, model.NotificationTypeCreation},
		{model.AppointmentStatusCanceled, model.NotificationTypeCancellation},
		{model.AppointmentStatusRequested, model.NotificationTypeReschedule},
		{model.AppointmentStatusFinished, model.NotificationTypeOther},
		{model.AppointmentStatusMissed, model.NotificationTypeOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.event, EventForStatus(tc.status), "status %s", tc.status)
	}
}
