package services

import (
	"context"
	"testing"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/config"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db,
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		testConfig())
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "supersecret",
		FullName: "Alice Liddell",
		Email:    "alice@example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleMember, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)

	// The member profile is created alongside the login
	var member models.Member
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&member).Error)
	assert.Equal(t, "Alice Liddell", member.FullName)

	// Usernames are unique
	_, err = svc.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "anotherpass",
		FullName: "Alice Impostor",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "supersecret", FullName: "Alice",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	// Access token carries identity and role
	claims, err := jwt.ValidateAccessToken(tokens.AccessToken, testConfig().JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(models.RoleMember), claims.Role)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSuspended(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "supersecret", FullName: "Alice",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", models.StatusSuspended).Error)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestRefreshRotation(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "supersecret", FullName: "Alice",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// Replaying the rotated-out token revokes every session
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestLogout(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "supersecret", FullName: "Alice",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshGarbage(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}
