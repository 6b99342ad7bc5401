package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleDoctor    UserRole = "doctor"
	UserRolePatient   UserRole = "patient"
	UserRoleSecretary UserRole = "secretary"
	UserRoleAdmin     UserRole = "admin"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DeviceToken  *string   `db:"device_token" json:"device_token,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Name     string   `json:"name" binding:"required"`
	Role     UserRole `json:"role" binding:"required,oneof=doctor patient secretary admin"`
	Password string   `json:"password" binding:"required,min=8"`
}

type RegisterDeviceTokenRequest struct {
	DeviceToken string `json:"device_token" binding:"required"`
}
