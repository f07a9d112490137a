package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/errors"
)

// PostgresNotificationRepository stores client notifications.
type PostgresNotificationRepository struct {
	db *database.DB
}

var _ NotificationRepository = (*PostgresNotificationRepository)(nil)

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository.
func NewPostgresNotificationRepository(db *database.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// Create inserts a notification.
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	query := `
		INSERT INTO notifications (client_id, subject, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		notification.ClientID,
		notification.Subject,
		notification.Message,
		notification.Read,
		notification.CreatedAt,
	).Scan(&notification.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create notification")
	}
	return nil
}

// ListByClient returns a client's notifications, newest first.
func (r *PostgresNotificationRepository) ListByClient(ctx context.Context, clientID string) ([]*Notification, error) {
	query := `
		SELECT id, client_id, subject, message, read, created_at
		FROM notifications
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list notifications")
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		notification := &Notification{}
		err := rows.Scan(
			&notification.ID,
			&notification.ClientID,
			&notification.Subject,
			&notification.Message,
			&notification.Read,
			&notification.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan notification")
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRow(ctx, query, id).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("notification", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to mark notification read")
	}
	return nil
}
