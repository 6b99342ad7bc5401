package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *appointmentTypeRepository) Create(ctx context.Context, appointmentType *model.AppointmentType) error {
	query := `
		INSERT INTO appointment_types (
			id, doctor_id, name, general_cost_cents, community_cost_cents,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	appointmentType.CreatedAt = time.Now()
	appointmentType.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointmentType.ID,
		appointmentType.DoctorID,
		appointmentType.Name,
		appointmentType.GeneralCostCents,
		appointmentType.CommunityCostCents,
		appointmentType.Active,
		appointmentType.CreatedAt,
		appointmentType.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment type: %w", err)
	}
	return nil
}

func (r *appointmentTypeRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentType, error) {
	query := `
		SELECT id, doctor_id, name, general_cost_cents, community_cost_cents,
			   active, created_at, updated_at
		FROM appointment_types
		WHERE id = $1
	`
	var appointmentType model.AppointmentType
	err := r.db.GetContext(ctx, &appointmentType, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment type: %w", err)
	}
	return &appointmentType, nil
}

func (r *appointmentTypeRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentType, error) {
	query := `
		SELECT id, doctor_id, name, general_cost_cents, community_cost_cents,
			   active, created_at, updated_at
		FROM appointment_types
		WHERE doctor_id = $1 AND active = true
		ORDER BY name
	`
	var appointmentTypes []*model.AppointmentType
	err := r.db.SelectContext(ctx, &appointmentTypes, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment types: %w", err)
	}
	return appointmentTypes, nil
}

// Deactivate soft-deletes a type; instances keep referencing it.
func (r *appointmentTypeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointment_types
		SET active = false, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate appointment type: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment type not found")
	}

	return nil
}
