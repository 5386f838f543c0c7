package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smartasset/asset-api/internal/models"
)

const notificationColumns = `id, user_id, notif_type, title, message, entity_type, entity_id, read_at, created_at`

// NotificationRepository provides database access for the per-user
// notification log.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindByID returns a notification by identifier.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1 LIMIT 1`, notificationColumns)
	var notif models.Notification
	if err := r.db.GetContext(ctx, &notif, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification by id: %w", err)
	}
	return &notif, nil
}

// ListByUser returns the user's notifications newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, notificationColumns)
	var notifs []models.Notification
	if err := r.db.SelectContext(ctx, &notifs, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifs, nil
}

// CountUnread counts the user's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// Create inserts a single notification.
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	if notif.ID == "" {
		notif.ID = uuid.NewString()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, notif_type, title, message, entity_type, entity_id, read_at, created_at) VALUES (:id, :user_id, :notif_type, :title, :message, :entity_type, :entity_id, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notif); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// BulkCreate inserts many notifications in one statement.
func (r *NotificationRepository) BulkCreate(ctx context.Context, notifs []models.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range notifs {
		if notifs[i].ID == "" {
			notifs[i].ID = uuid.NewString()
		}
		if notifs[i].CreatedAt.IsZero() {
			notifs[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO notifications (id, user_id, notif_type, title, message, entity_type, entity_id, read_at, created_at) VALUES (:id, :user_id, :notif_type, :title, :message, :entity_type, :entity_id, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notifs); err != nil {
		return fmt.Errorf("bulk create notifications: %w", err)
	}
	return nil
}

// SetRead sets or clears read_at on one notification.
func (r *NotificationRepository) SetRead(ctx context.Context, id string, readAt *time.Time) error {
	const query = `UPDATE notifications SET read_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, readAt); err != nil {
		return fmt.Errorf("set notification read: %w", err)
	}
	return nil
}

// MarkAllRead stamps read_at on every unread notification owned by the
// user and returns the number of rows affected. A second call is a no-op.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	const query = `UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, userID, readAt)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}
