package services

import (
	"context"
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"gorm.io/gorm"
)

// MemberService handles member profiles and their lending statistics
type MemberService struct {
	memberRepo *repositories.MemberRepository
	loanRepo   *repositories.LoanRepository
	fineRepo   *repositories.FineRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo *repositories.MemberRepository, loanRepo *repositories.LoanRepository, fineRepo *repositories.FineRepository) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		loanRepo:   loanRepo,
		fineRepo:   fineRepo,
	}
}

// UpdateProfileInput is the input for editing a member profile.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

// GetByID gets a member with lending statistics
func (s *MemberService) GetByID(ctx context.Context, id uint) (*models.MemberResponse, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.withStats(ctx, member)
}

// GetByUserID gets the member profile for a user account with statistics
func (s *MemberService) GetByUserID(ctx context.Context, userID uint) (*models.MemberResponse, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.withStats(ctx, member)
}

// List lists members with pagination. Statistics are omitted in list
// responses; fetch a single member for the full picture.
func (s *MemberService) List(ctx context.Context, params *pagination.Params) ([]*models.MemberResponse, int64, error) {
	members, total, err := s.memberRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.MemberResponse, len(members))
	for i, member := range members {
		responses[i] = member.ToResponse()
	}
	return responses, total, nil
}

// UpdateProfile edits a member profile
func (s *MemberService) UpdateProfile(ctx context.Context, memberID uint, input UpdateProfileInput) (*models.MemberResponse, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if input.FullName != nil {
		member.FullName = *input.FullName
	}
	if input.Email != nil {
		member.Email = *input.Email
	}
	if input.Phone != nil {
		member.Phone = *input.Phone
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return s.withStats(ctx, member)
}

// withStats decorates a member response with loan and fine aggregates
func (s *MemberService) withStats(ctx context.Context, member *models.Member) (*models.MemberResponse, error) {
	resp := member.ToResponse()

	activeLoans, err := s.loanRepo.CountByMemberAndStatus(ctx, member.ID, models.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	returnedLoans, err := s.loanRepo.CountByMemberAndStatus(ctx, member.ID, models.LoanStatusReturned)
	if err != nil {
		return nil, err
	}
	pendingFines, err := s.fineRepo.CountByMemberAndStatus(ctx, member.ID, models.FineStatusPending)
	if err != nil {
		return nil, err
	}
	settledFines, err := s.fineRepo.CountByMemberAndStatus(ctx, member.ID, models.FineStatusSettled)
	if err != nil {
		return nil, err
	}
	pendingDue, err := s.fineRepo.SumByMemberAndStatus(ctx, member.ID, models.FineStatusPending)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.fineRepo.SumByMemberAndStatus(ctx, member.ID, models.FineStatusSettled)
	if err != nil {
		return nil, err
	}

	resp.ActiveLoans = activeLoans
	resp.TotalLoans = activeLoans + returnedLoans
	resp.PendingFines = pendingFines
	resp.TotalFines = pendingFines + settledFines
	resp.PendingDue = pendingDue
	resp.TotalPaid = totalPaid
	return resp, nil
}
