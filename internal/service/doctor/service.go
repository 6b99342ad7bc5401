package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	repo  repository.DoctorRepository
	types repository.AppointmentTypeRepository
}

func NewService(repo repository.DoctorRepository, types repository.AppointmentTypeRepository) *Service {
	return &Service{repo: repo, types: types}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	doctor := &model.Doctor{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Specialty:   req.Specialty,
		License:     req.License,
		WorkStart:   req.WorkStart,
		WorkEnd:     req.WorkEnd,
		SlotMinutes: req.SlotMinutes,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("doctor", err)
	}
	return doctor, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) CreateAppointmentType(ctx context.Context, appointmentType *model.AppointmentType) (*model.AppointmentType, error) {
	if _, err := s.repo.Get(ctx, appointmentType.DoctorID); err != nil {
		return nil, apperrors.NotFound("doctor", err)
	}
	appointmentType.ID = uuid.New()
	appointmentType.Active = true
	if err := s.types.Create(ctx, appointmentType); err != nil {
		return nil, fmt.Errorf("failed to create appointment type: %w", err)
	}
	return appointmentType, nil
}

func (s *Service) ListAppointmentTypes(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentType, error) {
	appointmentTypes, err := s.types.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment types: %w", err)
	}
	return appointmentTypes, nil
}

func (s *Service) DeactivateAppointmentType(ctx context.Context, id uuid.UUID) error {
	if err := s.types.Deactivate(ctx, id); err != nil {
		return apperrors.NotFound("appointment type", err)
	}
	return nil
}
