package repository

import (
	"context"
	"database/sql"

	"github.com/eduplatform/eduplatform-api/internal/models"
)

type ListNotificationsOptions struct {
	UnreadOnly bool
	Priority   models.NotificationPriority
	Limit      int
}

type NotificationRepository interface {
	Create(ctx context.Context, notif models.Notification) (models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, opts ListNotificationsOptions) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif models.Notification) (models.Notification, error) {
	const query = `
		INSERT INTO edu.notifications (id, recipient_id, message, priority, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recipient_id, message, priority, is_read, created_at
	`
	row := r.db.QueryRowContext(ctx, query,
		notif.ID, notif.RecipientID, notif.Message, notif.Priority, notif.IsRead, notif.CreatedAt)
	return scanNotification(row)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID int64, opts ListNotificationsOptions) ([]models.Notification, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const query = `
		SELECT id, recipient_id, message, priority, is_read, created_at
		FROM edu.notifications
		WHERE recipient_id = $1
		  AND ($2 = FALSE OR is_read = FALSE)
		  AND ($3 = '' OR priority = $3)
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, recipientID, opts.UnreadOnly, string(opts.Priority), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, notificationID int64) (models.Notification, error) {
	const query = `
		UPDATE edu.notifications
		SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING id, recipient_id, message, priority, is_read, created_at
	`
	row := r.db.QueryRowContext(ctx, query, notificationID, recipientID)
	return scanNotification(row)
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var notif models.Notification
	if err := scanner.Scan(
		&notif.ID,
		&notif.RecipientID,
		&notif.Message,
		&notif.Priority,
		&notif.IsRead,
		&notif.CreatedAt,
	); err != nil {
		return models.Notification{}, err
	}
	return notif, nil
}
