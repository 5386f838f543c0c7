package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type notificationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, notif *models.Notification) error
	BulkCreate(ctx context.Context, notifs []models.Notification) error
	SetRead(ctx context.Context, id string, readAt *time.Time) error
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error)
}

type adminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]string, error)
}

// NotificationService manages the per-user notification feed and acts as the
// fanout primitive the workflow services publish through.
type NotificationService struct {
	repo   notificationRepository
	admins adminDirectory
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, admins adminDirectory, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, admins: admins, logger: logger}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Actor) ([]models.NotificationView, error) {
	notifs, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	views := make([]models.NotificationView, 0, len(notifs))
	for _, n := range notifs {
		views = append(views, n.View())
	}
	return views, nil
}

// UnreadCount returns the number of unread notifications for the caller.
func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int, error) {
	count, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}

// SetRead toggles the read marker on a notification owned by the caller.
// Notifications belonging to other users are reported as not found.
func (s *NotificationService) SetRead(ctx context.Context, actor models.Actor, id string, read bool) (*models.NotificationView, error) {
	notif, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if notif.UserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}

	var readAt *time.Time
	if read {
		now := time.Now().UTC()
		readAt = &now
	}
	if err := s.repo.SetRead(ctx, notif.ID, readAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}

	notif.ReadAt = readAt
	view := notif.View()
	return &view, nil
}

// MarkAllRead marks every unread notification of the caller as read and
// returns the number of rows affected. Calling it with nothing unread is a
// no-op that reports zero.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, actor.ID, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return updated, nil
}

// Notify creates a notification for a single recipient.
func (s *NotificationService) Notify(ctx context.Context, userID string, notifType models.NotificationType, title, message, entityType, entityID string) error {
	notif := &models.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		NotifType:  notifType,
		Title:      title,
		Message:    message,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}
	return s.repo.Create(ctx, notif)
}

// NotifyMany fans a notification out to the given recipients, deduplicating
// the list. An empty recipient set is a no-op.
func (s *NotificationService) NotifyMany(ctx context.Context, userIDs []string, notifType models.NotificationType, title, message, entityType, entityID string) error {
	seen := make(map[string]struct{}, len(userIDs))
	now := time.Now().UTC()
	notifs := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		notifs = append(notifs, models.Notification{
			ID:         uuid.NewString(),
			UserID:     id,
			NotifType:  notifType,
			Title:      title,
			Message:    message,
			EntityType: entityType,
			EntityID:   entityID,
			CreatedAt:  now,
		})
	}
	if len(notifs) == 0 {
		return nil
	}
	return s.repo.BulkCreate(ctx, notifs)
}

// NotifyAdmins fans a notification out to every active administrator.
func (s *NotificationService) NotifyAdmins(ctx context.Context, notifType models.NotificationType, title, message, entityType, entityID string) error {
	adminIDs, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		return err
	}
	return s.NotifyMany(ctx, adminIDs, notifType, title, message, entityType, entityID)
}

// AdminIDs exposes the active administrator list to workflow services that
// build combined recipient sets.
func (s *NotificationService) AdminIDs(ctx context.Context) ([]string, error) {
	return s.admins.ListAdminIDs(ctx)
}
