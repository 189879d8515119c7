package services

import (
	"context"
	"testing"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(db,
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db))
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	librarian, err := svc.Create(ctx, CreateUserInput{
		Username: "desk1", Password: "supersecret", Role: models.RoleLibrarian,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, librarian.Role)

	// Librarians have no member profile
	var count int64
	db.Model(&models.Member{}).Where("user_id = ?", librarian.ID).Count(&count)
	assert.Zero(t, count)

	member, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Password: "supersecret", Role: models.RoleMember, FullName: "Bob",
	})
	require.NoError(t, err)

	var profile models.Member
	require.NoError(t, db.Where("user_id = ?", member.ID).First(&profile).Error)
	assert.Equal(t, "Bob", profile.FullName)

	// No second admin, ever
	_, err = svc.Create(ctx, CreateUserInput{
		Username: "root2", Password: "supersecret", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrAdminImmutable)
}

func TestChangeRole(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	member, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Password: "supersecret", Role: models.RoleMember, FullName: "Bob",
	})
	require.NoError(t, err)

	// MEMBER -> LIBRARIAN drops the member profile
	promoted, err := svc.ChangeRole(ctx, member.ID, models.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, promoted.Role)

	var count int64
	db.Model(&models.Member{}).Where("user_id = ?", member.ID).Count(&count)
	assert.Zero(t, count)

	// LIBRARIAN -> MEMBER recreates one
	demoted, err := svc.ChangeRole(ctx, member.ID, models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, demoted.Role)

	db.Model(&models.Member{}).Where("user_id = ?", member.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestChangeRoleAdminProtected(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	svc := newUserService(db)
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, admin.ID, models.RoleLibrarian)
	assert.ErrorIs(t, err, ErrAdminImmutable)

	member, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Password: "supersecret", Role: models.RoleMember,
	})
	require.NoError(t, err)

	_, err = svc.ChangeRole(ctx, member.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrAdminImmutable)
}

func TestSuspendCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Password: "supersecret", Role: models.RoleMember, FullName: "Bob",
	})
	require.NoError(t, err)

	// Give Bob a live session
	require.NoError(t, db.Create(&models.RefreshToken{
		UserID: user.ID, TokenHash: "h", ExpiresAt: timeNowPlusDay(),
	}).Error)

	suspended, err := svc.SetStatus(ctx, user.ID, models.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, suspended.Status)

	var member models.Member
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&member).Error)
	assert.Equal(t, models.StatusSuspended, member.Status)

	var token models.RefreshToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&token).Error)
	assert.True(t, token.IsRevoked())

	// Suspending twice is a conflict
	_, err = svc.SetStatus(ctx, user.ID, models.StatusSuspended)
	assert.ErrorIs(t, err, ErrAlreadyInStatus)

	// Reactivation cascades back
	_, err = svc.SetStatus(ctx, user.ID, models.StatusActive)
	require.NoError(t, err)
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&member).Error)
	assert.Equal(t, models.StatusActive, member.Status)
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	svc := newUserService(db)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Password: "supersecret", Role: models.RoleMember, FullName: "Bob",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err = svc.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	db.Model(&models.Member{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)

	err = svc.Delete(ctx, admin.ID)
	assert.ErrorIs(t, err, ErrAdminImmutable)
}
