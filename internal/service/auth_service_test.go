package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/pkg/config"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
)

type authRepoStub struct {
	user          *models.BranchUser
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	lastLogin     *time.Time
}

func newAuthRepoStub(user *models.BranchUser) *authRepoStub {
	return &authRepoStub{user: user, refreshTokens: map[string]*models.RefreshToken{}}
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.BranchUser, error) {
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.BranchUser, error) {
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = &ts
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revoked = append(s.revoked, id)
	return nil
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bgv-api-test",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
	}
}

func activeUser(t *testing.T) *models.BranchUser {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.BranchUser{
		ID:           "user-1",
		Email:        "ops@branch.example",
		PasswordHash: string(hash),
		BranchID:     "branch-1",
		CustomerID:   "cust-1",
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t))
	svc := NewAuthService(repo, jwtTestConfig(), nil, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@branch.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotNil(t, repo.lastLogin)
	require.Contains(t, repo.refreshTokens, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "branch-1", claims.BranchID)
	assert.Equal(t, "cust-1", claims.CustomerID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(activeUser(t)), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@branch.example",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(nil), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@branch.example",
		Password: "s3cret",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := NewAuthService(newAuthRepoStub(user), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@branch.example",
		Password: "s3cret",
	})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t))
	svc := NewAuthService(repo, jwtTestConfig(), nil, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@branch.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Contains(t, repo.revoked, repo.refreshTokens[login.RefreshToken].ID)
}

func TestAuthServiceRefreshRejectsExpired(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t))
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, jwtTestConfig(), nil, nil)

	_, err := svc.Refresh(context.Background(), "stale")
	require.Error(t, err)

	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, apiErr.Code)
}

func TestAuthServiceValidateTokenRejectsForgery(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(activeUser(t)), jwtTestConfig(), nil, nil)
	other := NewAuthService(newAuthRepoStub(activeUser(t)), config.JWTConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
	}, nil, nil)

	login, err := other.Login(context.Background(), models.LoginRequest{
		Email:    "ops@branch.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken)
	assert.Error(t, err)
}
