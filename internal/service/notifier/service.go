package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// ErrAppointmentNotFound aborts the pipeline when the appointment's
// doctor or patient reference cannot be resolved.
var ErrAppointmentNotFound = errors.New("appointment references cannot be resolved")

// DispatchError wraps a persistence failure while writing a notification
// batch. The caller retries the whole dispatch, never individual rows.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return "notification dispatch failed: " + e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

type Service struct {
	users         repository.UserRepository
	doctors       repository.DoctorRepository
	patients      repository.PatientRepository
	types         repository.AppointmentTypeRepository
	notifications repository.NotificationRepository
	cfg           config.SchedulingConfig
	logger        *logger.Logger
	metrics       *metrics.Metrics
	locks         appointmentLocks
	now           func() time.Time
}

func NewService(
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	types repository.AppointmentTypeRepository,
	notifications repository.NotificationRepository,
	cfg config.SchedulingConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		users:         users,
		doctors:       doctors,
		patients:      patients,
		types:         types,
		notifications: notifications,
		cfg:           cfg,
		logger:        log,
		metrics:       m,
		locks:         appointmentLocks{entries: make(map[uuid.UUID]*appointmentLock)},
		now:           time.Now,
	}
}

// AppointmentChanged runs the full pipeline for one lifecycle event:
// resolve targets, build content, replace the pending batch.
func (s *Service) AppointmentChanged(ctx context.Context, appointment *model.Appointment, event model.NotificationType) error {
	targets, err := s.ResolveTargets(ctx, appointment, event)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, appointment, event, targets)
}

// appointmentLocks serializes concurrent dispatches for the same
// appointment id. Entries are reference counted and dropped when the
// last holder releases, so the map size tracks in-flight dispatches
// rather than every appointment id ever seen.
type appointmentLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*appointmentLock
}

type appointmentLock struct {
	mu      sync.Mutex
	holders int
}

// acquire blocks until the appointment's lock is held and returns the
// release function.
func (l *appointmentLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &appointmentLock{}
		l.entries[id] = entry
	}
	entry.holders++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.holders--
		if entry.holders == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
