package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrFineNotFound       = errors.New("fine not found")
	ErrFineAlreadySettled = errors.New("fine is already settled")
)

// FineService handles fine inquiry and settlement
type FineService struct {
	db       *gorm.DB
	fineRepo *repositories.FineRepository
}

// NewFineService creates a new fine service
func NewFineService(db *gorm.DB, fineRepo *repositories.FineRepository) *FineService {
	return &FineService{
		db:       db,
		fineRepo: fineRepo,
	}
}

// PayInput is the input for settling a fine. Payment details are
// optional; settlement without them records a generated receipt ref.
type PayInput struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=CASH CARD UPI"`
	PaymentRef    string `json:"payment_ref" validate:"omitempty,max=64"`
}

// Pay settles a pending fine. The transition is one-way; paying an
// already settled fine is a conflict, not a no-op.
func (s *FineService) Pay(ctx context.Context, fineID uint, input PayInput, settledByUserID uint) (*models.FineResponse, error) {
	if input.PaymentRef == "" {
		input.PaymentRef = uuid.NewString()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fineRepo := repositories.NewFineRepository(tx)

		fine, err := fineRepo.GetByID(ctx, fineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFineNotFound
			}
			return err
		}
		if fine.Status != models.FineStatusPending {
			return ErrFineAlreadySettled
		}

		now := time.Now()
		fine.Status = models.FineStatusSettled
		fine.SettledAt = &now
		fine.SettledByUserID = &settledByUserID
		fine.PaymentMethod = input.PaymentMethod
		fine.PaymentRef = input.PaymentRef
		return fineRepo.Update(ctx, fine)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💵 Fine settled: fine_id=%d ref=%s", fineID, input.PaymentRef)

	fine, err := s.fineRepo.GetByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	return fine.ToResponse(), nil
}

// GetByID gets a fine by ID
func (s *FineService) GetByID(ctx context.Context, id uint) (*models.FineResponse, error) {
	fine, err := s.fineRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFineNotFound
		}
		return nil, err
	}
	return fine.ToResponse(), nil
}

// List lists fines, optionally filtered by status
func (s *FineService) List(ctx context.Context, status string, params *pagination.Params) ([]*models.FineResponse, int64, error) {
	fines, total, err := s.fineRepo.List(ctx, status, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toFineResponses(fines), total, nil
}

// ListByMember lists a member's fines, optionally filtered by status
func (s *FineService) ListByMember(ctx context.Context, memberID uint, status string, params *pagination.Params) ([]*models.FineResponse, int64, error) {
	fines, total, err := s.fineRepo.ListByMember(ctx, memberID, status, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toFineResponses(fines), total, nil
}

// PendingDue sums a member's unpaid fines
func (s *FineService) PendingDue(ctx context.Context, memberID uint) (float64, error) {
	return s.fineRepo.SumByMemberAndStatus(ctx, memberID, models.FineStatusPending)
}

func toFineResponses(fines []*models.Fine) []*models.FineResponse {
	responses := make([]*models.FineResponse, len(fines))
	for i, fine := range fines {
		responses[i] = fine.ToResponse()
	}
	return responses
}
