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

	"github.com/firewatch-co/maintenance-api/internal/models"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newAuthRepoStub(t, "planner@firewatch.test", "s3cret")
	svc := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@firewatch.test",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RolePlanner, resp.User.Role)
	require.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, repo.user.ID, claims.UserID)
	assert.Equal(t, models.RolePlanner, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(newAuthRepoStub(t, "planner@firewatch.test", "s3cret"))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@firewatch.test",
		Password: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub(t, "planner@firewatch.test", "s3cret")
	repo.user.Active = false
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@firewatch.test",
		Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub(t, "planner@firewatch.test", "s3cret")
	svc := newAuthFixture(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@firewatch.test",
		Password: "s3cret",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed token is revoked; a second exchange must fail.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthFixture(newAuthRepoStub(t, "planner@firewatch.test", "s3cret"))

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func newAuthFixture(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "maintenance-api-test",
	})
}

type authRepoStub struct {
	user          *models.User
	refreshTokens []*models.RefreshToken
}

func newAuthRepoStub(t *testing.T, email, password string) *authRepoStub {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &authRepoStub{
		user: &models.User{
			ID:           "user-1",
			Email:        email,
			PasswordHash: string(hash),
			FullName:     "Pat Planner",
			Role:         models.RolePlanner,
			Active:       true,
		},
	}
}

func (s *authRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error { return nil }

func (s *authRepoStub) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.refreshTokens = append(s.refreshTokens, token)
	return nil
}

func (s *authRepoStub) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	for _, stored := range s.refreshTokens {
		if stored.Token == token {
			return stored, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, stored := range s.refreshTokens {
		if stored.ID == id {
			ts := revokedAt
			stored.RevokedAt = &ts
		}
	}
	return nil
}
