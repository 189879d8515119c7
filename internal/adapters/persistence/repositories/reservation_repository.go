package repositories

import (
	"context"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ReservationRepository handles reservation queue data access
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create creates a new reservation
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID gets a reservation by ID with book and member preloaded
func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Member").
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Update updates a reservation
func (r *ReservationRepository) Update(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

// ExistsActiveByMemberAndBook checks for a duplicate active reservation
func (r *ReservationRepository) ExistsActiveByMemberAndBook(ctx context.Context, memberID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("member_id = ? AND book_id = ? AND status = ?", memberID, bookID, models.ReservationStatusActive).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByBook counts active reservations queued for a book
func (r *ReservationRepository) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
		Count(&count).Error
	return count, err
}

// CountActiveAhead counts active reservations ahead of the given one in its
// book's queue. Used to derive the live queue position.
func (r *ReservationRepository) CountActiveAhead(ctx context.Context, reservation *models.Reservation) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("book_id = ? AND status = ?", reservation.BookID, models.ReservationStatusActive).
		Where("created_at < ? OR (created_at = ? AND id < ?)",
			reservation.CreatedAt, reservation.CreatedAt, reservation.ID).
		Count(&count).Error
	return count, err
}

// ListByMember lists a member's reservations, newest first.
// Pass an empty status to list across all statuses.
func (r *ReservationRepository) ListByMember(ctx context.Context, memberID uint, status string, offset, limit int) ([]*models.Reservation, int64, error) {
	var reservations []*models.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("member_id = ?", memberID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reservations).Error

	return reservations, total, err
}

// ListActiveByBook lists a book's active queue in first-come-first-served order
func (r *ReservationRepository) ListActiveByBook(ctx context.Context, bookID uint) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("book_id = ? AND status = ?", bookID, models.ReservationStatusActive).
		Order("created_at ASC, id ASC").
		Find(&reservations).Error
	return reservations, err
}

// CountActive counts all active reservations
func (r *ReservationRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusActive).
		Count(&count).Error
	return count, err
}
