package services

import (
	"context"
	"errors"
	"log"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"gorm.io/gorm"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationNotActive = errors.New("reservation is not active")
	ErrNotReservationOwner  = errors.New("reservation belongs to another member")
	ErrBookStillAvailable   = errors.New("copies are available, borrow instead of reserving")
	ErrAlreadyReserved      = errors.New("member already has an active reservation for this book")
)

// ReservationService handles per-book first-come-first-served wait queues
type ReservationService struct {
	db              *gorm.DB
	reservationRepo *repositories.ReservationRepository
}

// NewReservationService creates a new reservation service
func NewReservationService(db *gorm.DB, reservationRepo *repositories.ReservationRepository) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: reservationRepo,
	}
}

// Reserve places a member at the tail of a book's wait queue.
// Reservations only exist for books with no copies on the shelf; when a
// copy is available the member should simply borrow it.
func (s *ReservationService) Reserve(ctx context.Context, memberID, bookID uint) (*models.ReservationResponse, error) {
	var reservation *models.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookRepo := repositories.NewBookRepository(tx)
		memberRepo := repositories.NewMemberRepository(tx)
		reservationRepo := repositories.NewReservationRepository(tx)

		member, err := memberRepo.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.Status != models.StatusActive {
			return ErrMemberSuspended
		}

		book, err := bookRepo.GetByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.AvailableCopies > 0 {
			return ErrBookStillAvailable
		}

		duplicate, err := reservationRepo.ExistsActiveByMemberAndBook(ctx, memberID, bookID)
		if err != nil {
			return err
		}
		if duplicate {
			return ErrAlreadyReserved
		}

		queued, err := reservationRepo.CountActiveByBook(ctx, bookID)
		if err != nil {
			return err
		}

		reservation = &models.Reservation{
			BookID:        bookID,
			MemberID:      memberID,
			Status:        models.ReservationStatusActive,
			QueuePosition: int(queued) + 1,
		}
		return reservationRepo.Create(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔖 Reservation placed: reservation_id=%d book_id=%d member_id=%d position=%d",
		reservation.ID, bookID, memberID, reservation.QueuePosition)

	return s.toResponse(ctx, reservation)
}

// Cancel removes an active reservation from its queue.
// Members may cancel only their own reservations; staff may cancel any.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint, actorMemberID uint, actorIsStaff bool) error {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	if !actorIsStaff && reservation.MemberID != actorMemberID {
		return ErrNotReservationOwner
	}
	if reservation.Status != models.ReservationStatusActive {
		return ErrReservationNotActive
	}

	reservation.Status = models.ReservationStatusCancelled
	if err := s.reservationRepo.Update(ctx, reservation); err != nil {
		return err
	}

	log.Printf("❌ Reservation cancelled: reservation_id=%d", reservationID)
	return nil
}

// GetByID gets a reservation with its live queue position
func (s *ReservationService) GetByID(ctx context.Context, id uint) (*models.ReservationResponse, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return s.toResponse(ctx, reservation)
}

// ListByMember lists a member's reservations, optionally filtered by status
func (s *ReservationService) ListByMember(ctx context.Context, memberID uint, status string, params *pagination.Params) ([]*models.ReservationResponse, int64, error) {
	reservations, total, err := s.reservationRepo.ListByMember(ctx, memberID, status, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		resp, err := s.toResponse(ctx, reservation)
		if err != nil {
			return nil, 0, err
		}
		responses[i] = resp
	}
	return responses, total, nil
}

// ListQueue lists a book's active queue in first-come-first-served order
func (s *ReservationService) ListQueue(ctx context.Context, bookID uint) ([]*models.ReservationResponse, error) {
	reservations, err := s.reservationRepo.ListActiveByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		resp := reservation.ToResponse()
		resp.QueueAhead = int64(i)
		responses[i] = resp
	}
	return responses, nil
}

// toResponse builds the DTO with the live queue-ahead count.
// The count is derived from creation order among active rows, so it stays
// correct as earlier reservations are fulfilled or cancelled.
func (s *ReservationService) toResponse(ctx context.Context, reservation *models.Reservation) (*models.ReservationResponse, error) {
	resp := reservation.ToResponse()
	if reservation.Status == models.ReservationStatusActive {
		ahead, err := s.reservationRepo.CountActiveAhead(ctx, reservation)
		if err != nil {
			return nil, err
		}
		resp.QueueAhead = ahead
	}
	return resp, nil
}
