package services

import (
	"context"
	"errors"
	"log"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/core/domain"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/password"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAdminImmutable  = errors.New("admin accounts cannot be created, modified or deleted here")
	ErrInvalidRole     = errors.New("invalid role")
	ErrAlreadyInStatus = errors.New("account is already in that status")
)

// UserService handles account administration.
// Every operation here is admin-only; the single ADMIN account is
// protected from modification through this surface.
type UserService struct {
	db          *gorm.DB
	userRepo    *repositories.UserRepository
	refreshRepo *repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, userRepo *repositories.UserRepository, refreshRepo *repositories.RefreshTokenRepository) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
	}
}

// CreateUserInput is the input for creating a LIBRARIAN or MEMBER account
type CreateUserInput struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=LIBRARIAN MEMBER"`
	FullName string      `json:"full_name" validate:"omitempty,max=100"`
	Email    string      `json:"email" validate:"omitempty,email"`
	Phone    string      `json:"phone" validate:"omitempty,max=20"`
}

// Create creates a staff or member account. MEMBER accounts get a member
// profile in the same transaction; ADMIN accounts cannot be created.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.UserResponse, error) {
	if input.Role == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}
	if input.Role != models.RoleLibrarian && input.Role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: input.Username,
		Password: hashed,
		Role:     input.Role,
		Status:   models.StatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		if user.Role != models.RoleMember {
			return nil
		}

		fullName := input.FullName
		if fullName == "" {
			fullName = input.Username
		}
		return repositories.NewMemberRepository(tx).Create(ctx, &models.Member{
			UserID:   user.ID,
			FullName: fullName,
			Email:    input.Email,
			Phone:    input.Phone,
			Status:   models.StatusActive,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Account created: %s (role=%s)", user.Username, user.Role)
	return user.ToResponse(), nil
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// List lists users with pagination
func (s *UserService) List(ctx context.Context, params *pagination.Params) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, total, nil
}

// ChangeRole switches an account between LIBRARIAN and MEMBER.
// Moving to MEMBER creates a member profile; moving off MEMBER removes
// it. The ADMIN account cannot change role, and nothing can be promoted
// to ADMIN.
func (s *UserService) ChangeRole(ctx context.Context, id uint, newRole models.Role) (*models.UserResponse, error) {
	if newRole == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}
	if newRole != models.RoleLibrarian && newRole != models.RoleMember {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}
	if user.Role == newRole {
		return user.ToResponse(), nil
	}

	oldRole := user.Role
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		memberRepo := repositories.NewMemberRepository(tx)

		user.Role = newRole
		if err := repositories.NewUserRepository(tx).Update(ctx, user); err != nil {
			return err
		}

		switch {
		case oldRole == models.RoleMember:
			return memberRepo.DeleteByUserID(ctx, user.ID)
		case newRole == models.RoleMember:
			return memberRepo.Create(ctx, &models.Member{
				UserID:   user.ID,
				FullName: user.Username,
				Status:   user.Status,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔄 Role changed: user_id=%d %s -> %s", user.ID, oldRole, newRole)
	return user.ToResponse(), nil
}

// SetStatus suspends or reactivates an account. Suspension cascades to
// the member profile and revokes every session. The ADMIN account cannot
// be suspended.
func (s *UserService) SetStatus(ctx context.Context, id uint, status string) (*models.UserResponse, error) {
	if status != models.StatusActive && status != models.StatusSuspended {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}
	if user.Status == status {
		return nil, ErrAlreadyInStatus
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Status = status
		if err := repositories.NewUserRepository(tx).Update(ctx, user); err != nil {
			return err
		}

		if user.Role == models.RoleMember {
			memberRepo := repositories.NewMemberRepository(tx)
			member, err := memberRepo.GetByUserID(ctx, user.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			member.Status = status
			if err := memberRepo.Update(ctx, member); err != nil {
				return err
			}
		}

		if status == models.StatusSuspended {
			return repositories.NewRefreshTokenRepository(tx).RevokeAllByUserID(ctx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔒 Account status changed: user_id=%d -> %s", user.ID, status)
	return user.ToResponse(), nil
}

// Delete removes an account and its member profile. The ADMIN account
// cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role == models.RoleAdmin {
		return ErrAdminImmutable
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewRefreshTokenRepository(tx).RevokeAllByUserID(ctx, user.ID); err != nil {
			return err
		}
		if user.Role == models.RoleMember {
			if err := repositories.NewMemberRepository(tx).DeleteByUserID(ctx, user.ID); err != nil {
				return err
			}
		}
		return repositories.NewUserRepository(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️ Account deleted: user_id=%d (%s)", user.ID, user.Username)
	return nil
}
