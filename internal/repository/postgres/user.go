package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, role, password_hash, device_token,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.DeviceToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, role, password_hash, device_token,
			   created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `
		UPDATE users
		SET device_token = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, token, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

func (r *userRepository) GetDeviceToken(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `
		SELECT device_token
		FROM users
		WHERE id = $1
	`
	var token sql.NullString
	err := r.db.GetContext(ctx, &token, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get device token: %w", err)
	}
	if !token.Valid {
		return "", nil
	}
	return token.String, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	query := `
		SELECT id, email, name, role, password_hash, device_token,
			   created_at, updated_at
		FROM users
		WHERE role = $1
		ORDER BY created_at ASC
	`
	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}
