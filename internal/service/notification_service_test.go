package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]models.Notification
	bulk          [][]models.Notification
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Create(ctx context.Context, notif *models.Notification) error {
	if m.notifications == nil {
		m.notifications = make(map[string]models.Notification)
	}
	m.notifications[notif.ID] = *notif
	return nil
}

func (m *mockNotificationRepo) BulkCreate(ctx context.Context, notifs []models.Notification) error {
	m.bulk = append(m.bulk, notifs)
	for _, n := range notifs {
		if m.notifications == nil {
			m.notifications = make(map[string]models.Notification)
		}
		m.notifications[n.ID] = n
	}
	return nil
}

func (m *mockNotificationRepo) SetRead(ctx context.Context, id string, readAt *time.Time) error {
	n := m.notifications[id]
	n.ReadAt = readAt
	m.notifications[id] = n
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	var updated int64
	for id, n := range m.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			at := readAt
			n.ReadAt = &at
			m.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

type mockAdminDirectory struct {
	adminIDs []string
}

func (m *mockAdminDirectory) ListAdminIDs(ctx context.Context) ([]string, error) {
	return m.adminIDs, nil
}

func newNotificationFixture() (*NotificationService, *mockNotificationRepo) {
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{}}
	svc := NewNotificationService(repo, &mockAdminDirectory{adminIDs: []string{"admin-1", "admin-2"}}, nil)
	return svc, repo
}

func TestSetReadTogglesMarker(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.notifications["n-1"] = models.Notification{ID: "n-1", UserID: "emp-1", Title: "Asset assigned"}

	view, err := svc.SetRead(context.Background(), employeeActor, "n-1", true)
	require.NoError(t, err)
	assert.True(t, view.IsRead)
	assert.NotNil(t, repo.notifications["n-1"].ReadAt)

	view, err = svc.SetRead(context.Background(), employeeActor, "n-1", false)
	require.NoError(t, err)
	assert.False(t, view.IsRead)
	assert.Nil(t, repo.notifications["n-1"].ReadAt)
}

func TestSetReadHidesForeignNotification(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.notifications["n-1"] = models.Notification{ID: "n-1", UserID: "emp-2"}

	_, err := svc.SetRead(context.Background(), employeeActor, "n-1", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.notifications["n-1"] = models.Notification{ID: "n-1", UserID: "emp-1"}
	repo.notifications["n-2"] = models.Notification{ID: "n-2", UserID: "emp-1"}
	repo.notifications["n-3"] = models.Notification{ID: "n-3", UserID: "emp-2"}

	updated, err := svc.MarkAllRead(context.Background(), employeeActor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err := svc.UnreadCount(context.Background(), employeeActor)
	require.NoError(t, err)
	assert.Zero(t, count)

	updated, err = svc.MarkAllRead(context.Background(), employeeActor)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestNotifyManyDeduplicatesRecipients(t *testing.T) {
	svc, repo := newNotificationFixture()

	err := svc.NotifyMany(context.Background(), []string{"emp-1", "emp-1", "", "emp-2"},
		models.NotifTicketUpdated, "Ticket resolved", "Work marked done for Printer (PR-9).",
		models.EntityTicket, "tk-1")
	require.NoError(t, err)

	require.Len(t, repo.bulk, 1)
	assert.Len(t, repo.bulk[0], 2)
}

func TestNotifyManyEmptySetIsNoop(t *testing.T) {
	svc, repo := newNotificationFixture()

	err := svc.NotifyMany(context.Background(), []string{"", ""},
		models.NotifTicketUpdated, "t", "m", models.EntityTicket, "tk-1")
	require.NoError(t, err)
	assert.Empty(t, repo.bulk)
}

func TestNotifyAdminsFansOutToDirectory(t *testing.T) {
	svc, repo := newNotificationFixture()

	err := svc.NotifyAdmins(context.Background(), models.NotifTicketCreated,
		"New ticket created", "Jordan Lee created a ticket for Printer (PR-9).",
		models.EntityTicket, "tk-1")
	require.NoError(t, err)

	require.Len(t, repo.bulk, 1)
	recipients := make([]string, 0, len(repo.bulk[0]))
	for _, n := range repo.bulk[0] {
		recipients = append(recipients, n.UserID)
	}
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, recipients)
}
