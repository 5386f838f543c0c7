package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
)

func newNotificationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { _ = sqlxDB.Close() }
}

func TestNotificationListByUser(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "notif_type", "title", "message", "entity_type", "entity_id", "read_at", "created_at"}).
		AddRow("n-1", "emp-1", "ASSET_ASSIGNED", "Asset assigned", "Laptop (SN-1) was assigned to you.", "assignment", "as-1", nil, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, notif_type, title, message, entity_type, entity_id, read_at, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs("emp-1").
		WillReturnRows(rows)

	notifs, err := repo.ListByUser(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Asset assigned", notifs[0].Title)
	assert.False(t, notifs[0].IsRead())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCountUnread(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`)).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnread(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationSetReadClearsMarker(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read_at = $2 WHERE id = $1`)).
		WithArgs("n-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetRead(context.Background(), "n-1", nil)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkAllReadReportsAffectedRows(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	readAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`)).
		WithArgs("emp-1", readAt).
		WillReturnResult(sqlmock.NewResult(0, 4))

	affected, err := repo.MarkAllRead(context.Background(), "emp-1", readAt)
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationBulkCreate(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 2))

	notifs := []models.Notification{
		{UserID: "admin-1", NotifType: models.NotifTicketCreated, Title: "New ticket created", EntityType: models.EntityTicket, EntityID: "tk-1"},
		{UserID: "admin-2", NotifType: models.NotifTicketCreated, Title: "New ticket created", EntityType: models.EntityTicket, EntityID: "tk-1"},
	}
	err := repo.BulkCreate(context.Background(), notifs)
	require.NoError(t, err)
	assert.NotEmpty(t, notifs[0].ID)
	assert.NotEmpty(t, notifs[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
