package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using
// sqlite. Channels are stored as a comma-joined list.
type NotificationRepository struct {
	pool *ConnectionPool
}

// NewNotificationRepository creates a sqlite-backed notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// CreateNotification stores a notification record.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, type, title, message, channels, read, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		notification.ID,
		notification.RecipientID,
		notification.Type,
		notification.Title,
		notification.Message,
		strings.Join(notification.Channels, ","),
		boolToInt(notification.Read),
		formatTime(notification.CreatedAt),
		formatTime(notification.UpdatedAt),
	)
	return mapError(err)
}

// ListForRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]persistence.Notification, error) {
	query := notificationSelect + ` WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read. The recipient ID is part of the match
// so a user cannot acknowledge someone else's notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (persistence.Notification, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1, updated_at = ? WHERE id = ? AND recipient_id = ?`,
		formatTime(readAt), id, recipientID,
	)
	if err != nil {
		return persistence.Notification{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Notification{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Notification{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, notificationSelect+` WHERE id = ?`, id)
	return scanNotification(row)
}

const notificationSelect = `
	SELECT id, recipient_id, type, title, message, channels, read, created_at, updated_at
	FROM notifications
`

func scanNotification(row rowScanner) (persistence.Notification, error) {
	var (
		notification persistence.Notification
		channels     string
		read         int
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.Type,
		&notification.Title,
		&notification.Message,
		&channels,
		&read,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Notification{}, persistence.ErrNotFound
		}
		return persistence.Notification{}, mapError(err)
	}
	if channels != "" {
		notification.Channels = strings.Split(channels, ",")
	}
	notification.Read = read != 0
	if notification.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Notification{}, fmt.Errorf("parse created_at: %w", err)
	}
	if notification.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Notification{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return notification, nil
}

var _ persistence.NotificationRepository = (*NotificationRepository)(nil)
