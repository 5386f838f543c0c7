package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]models.User
	lastFilter models.UserFilter
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	var list []models.User
	for _, u := range m.users {
		list = append(list, u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, id, avatarPath string) error {
	u := m.users[id]
	u.AvatarPath = avatarPath
	m.users[id] = u
	return nil
}

type mockAvatarStorage struct {
	saved   []string
	deleted []string
}

func (m *mockAvatarStorage) SaveStream(filename string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.saved = append(m.saved, filename)
	return filename, nil
}

func (m *mockAvatarStorage) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

func newUserFixture() (*UserService, *mockUserRepo, *mockAvatarStorage) {
	repo := &mockUserRepo{users: map[string]models.User{
		"emp-1": {ID: "emp-1", Email: "jordan@example.com", FullName: "Jordan Lee", Role: models.RoleEmployee, Active: true},
	}}
	store := &mockAvatarStorage{}
	svc := NewUserService(repo, store, nil, nil, "/media/avatars", 1024)
	return svc, repo, store
}

func TestUpdateMeTrimsFullName(t *testing.T) {
	svc, repo, _ := newUserFixture()

	pub, err := svc.UpdateMe(context.Background(), employeeActor, UpdateProfileRequest{FullName: "  Jordan L.  "})
	require.NoError(t, err)
	assert.Equal(t, "Jordan L.", pub.FullName)
	assert.Equal(t, "Jordan L.", repo.users["emp-1"].FullName)
}

func TestUpdateMeRequiresFullName(t *testing.T) {
	svc, _, _ := newUserFixture()

	_, err := svc.UpdateMe(context.Background(), employeeActor, UpdateProfileRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadAvatarRejectsUnsupportedType(t *testing.T) {
	svc, _, store := newUserFixture()

	_, err := svc.UploadAvatar(context.Background(), employeeActor, "avatar.exe", 10, strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.saved)
}

func TestUploadAvatarRejectsOversizedFile(t *testing.T) {
	svc, _, store := newUserFixture()

	_, err := svc.UploadAvatar(context.Background(), employeeActor, "avatar.png", 4096, strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.saved)
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	svc, repo, store := newUserFixture()
	u := repo.users["emp-1"]
	u.AvatarPath = "old.png"
	repo.users["emp-1"] = u

	pub, err := svc.UploadAvatar(context.Background(), employeeActor, "new.png", 12, strings.NewReader("binary bytes"))
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.True(t, strings.HasSuffix(store.saved[0], ".png"))
	assert.Equal(t, []string{"old.png"}, store.deleted)
	assert.Equal(t, store.saved[0], repo.users["emp-1"].AvatarPath)
	require.NotNil(t, pub.AvatarURL)
	assert.Equal(t, "/media/avatars/"+store.saved[0], *pub.AvatarURL)
}

func TestUserListPaginationDefaults(t *testing.T) {
	svc, _, _ := newUserFixture()

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
