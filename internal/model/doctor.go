package model

import (
	"time"

	"github.com/google/uuid"
)

// Doctor links a user profile to a medical practice. The working-hours
// columns drive the slot grid; empty values fall back to the configured
// clinic-wide defaults.
type Doctor struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Specialty   string    `db:"specialty" json:"specialty"`
	License     string    `db:"license" json:"license"`
	WorkStart   string    `db:"work_start" json:"work_start,omitempty"`
	WorkEnd     string    `db:"work_end" json:"work_end,omitempty"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateDoctorRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	Specialty   string    `json:"specialty" binding:"required"`
	License     string    `json:"license" binding:"required"`
	WorkStart   string    `json:"work_start"`
	WorkEnd     string    `json:"work_end"`
	SlotMinutes int       `json:"slot_minutes"`
}
