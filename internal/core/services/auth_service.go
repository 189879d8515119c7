package services

import (
	"context"
	"errors"
	"log"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/config"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/jwt"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrRefreshInvalid     = errors.New("refresh token is invalid")
	ErrRefreshExpired     = errors.New("refresh token has expired")
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	db          *gorm.DB
	userRepo    *repositories.UserRepository
	refreshRepo *repositories.RefreshTokenRepository
	cfg         *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, userRepo *repositories.UserRepository, refreshRepo *repositories.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		cfg:         cfg,
	}
}

// RegisterInput is the input for member self-registration
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// LoginInput is the input for login
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	TokenType    string               `json:"token_type"`
	User         *models.UserResponse `json:"user,omitempty"`
}

// Register creates a MEMBER account with its member profile.
// Both rows are written in one transaction so a failed profile insert
// never leaves an orphaned login.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.UserResponse, error) {
	// 1. Reject taken usernames early
	taken, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	// 2. Hash the password
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 3. Create user + member profile atomically
	user := &models.User{
		Username: input.Username,
		Password: hashed,
		Role:     models.RoleMember,
		Status:   models.StatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}

		member := &models.Member{
			UserID:   user.ID,
			FullName: input.FullName,
			Email:    input.Email,
			Phone:    input.Phone,
			Status:   models.StatusActive,
		}
		return repositories.NewMemberRepository(tx).Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Registered member account: %s (user_id=%d)", user.Username, user.ID)
	return user.ToResponse(), nil
}

// Login verifies credentials and issues an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	// 1. Look up the account
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify the password before revealing account state
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Suspended accounts cannot log in
	if user.Status != models.StatusActive {
		return nil, ErrAccountSuspended
	}

	// 4. Issue tokens
	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token and issues a new pair.
// Presenting a revoked token is treated as theft: every session for the
// user is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	// 1. Verify signature and expiry
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrRefreshInvalid
	}

	// 2. Look up the stored token by hash
	stored, err := s.refreshRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	// 3. Reuse of a revoked token kills every session for the user
	if stored.IsRevoked() {
		log.Printf("⚠️ Revoked refresh token reused for user_id=%d, revoking all sessions", claims.UserID)
		_ = s.refreshRepo.RevokeAllByUserID(ctx, claims.UserID)
		return nil, ErrRefreshInvalid
	}
	if stored.IsExpired() {
		return nil, ErrRefreshExpired
	}

	// 4. The account must still be active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	if user.Status != models.StatusActive {
		return nil, ErrAccountSuspended
	}

	// 5. Rotate: revoke the presented token, issue a fresh pair
	if err := s.refreshRepo.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token the user holds
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.refreshRepo.RevokeAllByUserID(ctx, userID)
}

// issueTokens generates and persists an access/refresh pair for the user
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Username, string(user.Role), s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()
	refreshToken, err := jwt.GenerateRefreshToken(user.ID, tokenID, s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays)
	if err != nil {
		return nil, err
	}

	err = s.refreshRepo.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		User:         user.ToResponse(),
	}, nil
}
