package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []models.AuditLog
	revokedAll    []string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "learnflow-api",
	}
}

func seedUser(t *testing.T, repo *mockAuthRepo, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "u1",
		Email:        "student@learnflow.dev",
		PasswordHash: string(hash),
		FullName:     "Student",
		Role:         models.RoleStudent,
		Active:       true,
	}
	if repo.users == nil {
		repo.users = make(map[string]*models.User)
	}
	repo.users[user.ID] = user
	return user
}

func TestRegisterCreatesStudent(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "new@learnflow.dev",
		Password: "secret123",
		FullName: "신규 수강생",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := &mockAuthRepo{}
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "student@learnflow.dev",
		Password: "secret123",
		FullName: "중복",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &mockAuthRepo{}
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@learnflow.dev",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{}
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@learnflow.dev",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := &mockAuthRepo{}
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@learnflow.dev",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the consumed token is revoked and cannot be replayed
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := &mockAuthRepo{}
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@learnflow.dev",
		Password: "newsecret",
	})
	require.NoError(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, zap.NewNop(), testAuthConfig())
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
