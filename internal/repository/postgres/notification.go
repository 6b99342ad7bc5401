package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
)

// ReplacePending runs the delete and the bulk insert inside one
// transaction so a failing insert never leaves a half-written batch and a
// racing cleanup cannot interleave between the two steps.
func (r *notificationRepository) ReplacePending(ctx context.Context, appointmentID uuid.UUID, batch []*model.Notification) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		deleteQuery := `
			DELETE FROM notifications
			WHERE appointment_id = $1 AND status = $2
		`
		if _, err := tx.ExecContext(ctx, deleteQuery, appointmentID, model.NotificationStatusPending); err != nil {
			return fmt.Errorf("failed to delete pending notifications: %w", err)
		}

		if len(batch) == 0 {
			return nil
		}

		insertQuery := `
			INSERT INTO notifications (
				id, user_id, device_token, appointment_id, type,
				title, body, status, created_at, send_time, sent_at
			) VALUES (
				:id, :user_id, :device_token, :appointment_id, :type,
				:title, :body, :status, :created_at, :send_time, :sent_at
			)
		`
		if _, err := tx.NamedExecContext(ctx, insertQuery, batch); err != nil {
			return fmt.Errorf("failed to insert notification batch: %w", err)
		}
		return nil
	})
}

func (r *notificationRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, device_token, appointment_id, type,
			   title, body, status, created_at, send_time, sent_at
		FROM notifications
		WHERE appointment_id = $1
		ORDER BY send_time ASC
	`
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, device_token, appointment_id, type,
			   title, body, status, created_at, send_time, sent_at
		FROM notifications
		WHERE status = $1
		AND send_time <= $2
		ORDER BY send_time ASC
		LIMIT $3
	`
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, model.NotificationStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = $1, sent_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, model.NotificationStatusSent, sentAt, id, model.NotificationStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found or already sent")
	}

	return nil
}
