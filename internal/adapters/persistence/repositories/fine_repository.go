package repositories

import (
	"context"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// FineRepository handles fine data access
type FineRepository struct {
	db *gorm.DB
}

// NewFineRepository creates a new fine repository
func NewFineRepository(db *gorm.DB) *FineRepository {
	return &FineRepository{db: db}
}

// Create creates a new fine
func (r *FineRepository) Create(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Create(fine).Error
}

// GetByID gets a fine by ID with its loan, book and member preloaded
func (r *FineRepository) GetByID(ctx context.Context, id uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).
		Preload("Loan").
		Preload("Loan.Book").
		Preload("Member").
		First(&fine, id).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// Update updates a fine
func (r *FineRepository) Update(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Save(fine).Error
}

// GetPendingByLoan gets the pending fine for a loan, if one exists
func (r *FineRepository) GetPendingByLoan(ctx context.Context, loanID uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND status = ?", loanID, models.FineStatusPending).
		First(&fine).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// List lists fines with pagination, newest first.
// Pass an empty status to list across all statuses.
func (r *FineRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Fine, int64, error) {
	var fines []*models.Fine
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Fine{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)

	err := query.
		Preload("Loan").
		Preload("Loan.Book").
		Preload("Member").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&fines).Error

	return fines, total, err
}

// ListByMember lists a member's fines, newest first
func (r *FineRepository) ListByMember(ctx context.Context, memberID uint, status string, offset, limit int) ([]*models.Fine, int64, error) {
	var fines []*models.Fine
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Fine{}).
		Where("member_id = ?", memberID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)

	err := query.
		Preload("Loan").
		Preload("Loan.Book").
		Preload("Member").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&fines).Error

	return fines, total, err
}

// SumByStatus sums fine amounts in the given status
func (r *FineRepository) SumByStatus(ctx context.Context, status string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Fine{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumByMemberAndStatus sums a member's fine amounts in the given status
func (r *FineRepository) SumByMemberAndStatus(ctx context.Context, memberID uint, status string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Fine{}).
		Where("member_id = ? AND status = ?", memberID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// CountByMemberAndStatus counts a member's fines in the given status
func (r *FineRepository) CountByMemberAndStatus(ctx context.Context, memberID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Fine{}).
		Where("member_id = ? AND status = ?", memberID, status).
		Count(&count).Error
	return count, err
}

// CountByStatus counts fines in the given status
func (r *FineRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Fine{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
