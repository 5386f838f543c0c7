package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	revokedAll    []string
	auditLogs     []models.AuditLog
	passwordHash  string
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			match := u
			return &match, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	u := m.users[id]
	u.LastLogin = &ts
	m.users[id] = u
	return nil
}

func (m *mockAuthUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u := m.users[id]
	u.PasswordHash = passwordHash
	m.users[id] = u
	m.passwordHash = passwordHash
	return nil
}

func (m *mockAuthUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	for key, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
			m.refreshTokens[key] = token
		}
	}
	return nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]models.RefreshToken)
	}
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			m.refreshTokens[key] = token
		}
	}
	return nil
}

func (m *mockAuthUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockAuthUserRepo{
		users: map[string]models.User{
			"emp-1": {ID: "emp-1", Email: "jordan@example.com", FullName: "Jordan Lee", Role: models.RoleEmployee, Active: true, PasswordHash: string(hash)},
			"emp-2": {ID: "emp-2", Email: "inactive@example.com", FullName: "Gone", Role: models.RoleEmployee, Active: false, PasswordHash: string(hash)},
		},
		refreshTokens: map[string]models.RefreshToken{},
	}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "asset-api",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "emp-1", resp.User.ID)
	assert.Contains(t, repo.refreshTokens, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, models.RoleEmployee, claims.Role)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "nope-nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "inactive@example.com", Password: "s3cret!pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked, "used token must be revoked")

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "emp-1", models.ChangePasswordRequest{
		OldPassword: "wrong-old", NewPassword: "another!pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "emp-1", models.ChangePasswordRequest{
		OldPassword: "s3cret!pass", NewPassword: "another!pass",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "emp-1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("another!pass")))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
