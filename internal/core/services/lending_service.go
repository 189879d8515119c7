package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Lending business rules
const (
	// LoanPeriodDays is the standard lending period
	LoanPeriodDays = 14
	// FinePerDay is the fine in rupees per whole day overdue
	FinePerDay = 5.0
	// BorrowLimit is the maximum number of simultaneously active loans per member
	BorrowLimit = 5
)

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAlreadyReturned = errors.New("loan is already returned")
	ErrNotLoanOwner        = errors.New("loan belongs to another member")
	ErrBookUnavailable     = errors.New("no copies of this book are available")
	ErrBorrowLimitReached  = errors.New("member has reached the active loan limit")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberSuspended     = errors.New("member account is suspended")
	ErrMemberIDRequired    = errors.New("member_id is required for staff-issued loans")
	ErrMemberIDForbidden   = errors.New("members can only borrow for themselves")
)

// CalculateFine returns the fine owed on a loan due at dueAt as of now.
// Only whole elapsed days count; a loan due this morning owes nothing
// until a full day has passed.
func CalculateFine(dueAt, now time.Time) (days int, amount float64) {
	if !now.After(dueAt) {
		return 0, 0
	}
	days = int(now.Sub(dueAt).Hours() / 24)
	return days, float64(days) * FinePerDay
}

// LendingService handles borrowing and returning books
type LendingService struct {
	db       *gorm.DB
	loanRepo *repositories.LoanRepository
}

// NewLendingService creates a new lending service
func NewLendingService(db *gorm.DB, loanRepo *repositories.LoanRepository) *LendingService {
	return &LendingService{
		db:       db,
		loanRepo: loanRepo,
	}
}

// BorrowInput is the input for issuing a loan.
// Members leave member_id empty and borrow for themselves; staff name
// the member and may override the due date.
type BorrowInput struct {
	BookID   uint       `json:"book_id" validate:"required"`
	MemberID uint       `json:"member_id"`
	DueAt    *time.Time `json:"due_at"`
}

// Borrow issues a book to a member.
// The whole flow runs in one transaction; the availability decrement is a
// guarded update, so two borrows racing for the last copy cannot both win.
func (s *LendingService) Borrow(ctx context.Context, input BorrowInput, actor Actor) (*models.LoanResponse, error) {
	var loan *models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookRepo := repositories.NewBookRepository(tx)
		memberRepo := repositories.NewMemberRepository(tx)
		loanRepo := repositories.NewLoanRepository(tx)

		// 1. Resolve the borrowing member. Staff address any member;
		//    members are pinned to their own profile.
		var member *models.Member
		var err error
		if actor.IsStaff() {
			if input.MemberID == 0 {
				return ErrMemberIDRequired
			}
			member, err = memberRepo.GetByID(ctx, input.MemberID)
		} else {
			if input.MemberID != 0 {
				return ErrMemberIDForbidden
			}
			member, err = memberRepo.GetByUserID(ctx, actor.UserID)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.Status != models.StatusActive {
			return ErrMemberSuspended
		}

		// 2. Enforce the active loan limit
		active, err := loanRepo.CountByMemberAndStatus(ctx, member.ID, models.LoanStatusActive)
		if err != nil {
			return err
		}
		if active >= BorrowLimit {
			return ErrBorrowLimitReached
		}

		// 3. The book must exist before we try to take a copy
		if _, err := bookRepo.GetByID(ctx, input.BookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		// 4. Take a copy off the shelf; losing the race means unavailable
		ok, err := bookRepo.DecrementAvailable(ctx, input.BookID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBookUnavailable
		}

		// 5. Record the loan. Only staff may shorten or extend the
		//    due date; members always get the standard period.
		now := time.Now()
		dueAt := now.AddDate(0, 0, LoanPeriodDays)
		if actor.IsStaff() && input.DueAt != nil {
			dueAt = *input.DueAt
		}
		loan = &models.Loan{
			BookID:         input.BookID,
			MemberID:       member.ID,
			IssuedAt:       now,
			DueAt:          dueAt,
			Status:         models.LoanStatusActive,
			IssuedByUserID: actor.UserID,
		}
		return loanRepo.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📖 Loan issued: loan_id=%d book_id=%d member_id=%d due=%s",
		loan.ID, loan.BookID, loan.MemberID, loan.DueAt.Format("2006-01-02"))

	full, err := s.loanRepo.GetByID(ctx, loan.ID)
	if err != nil {
		return loan.ToResponse(), nil
	}
	return full.ToResponse(), nil
}

// Return closes a loan and puts the copy back on the shelf. Members may
// only return their own loans; staff may return any.
// An overdue return settles its fine amount at the moment of return: the
// pending fine is updated, or created if the daily sweep has not reached
// the loan yet. The freed copy then goes to the head of the book's
// reservation queue, if anyone is waiting.
func (s *LendingService) Return(ctx context.Context, loanID uint, actor Actor) (*models.LoanResponse, error) {
	var fineAmount float64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookRepo := repositories.NewBookRepository(tx)
		memberRepo := repositories.NewMemberRepository(tx)
		loanRepo := repositories.NewLoanRepository(tx)
		fineRepo := repositories.NewFineRepository(tx)

		// 1. The loan must exist and belong to the actor unless staff
		loan, err := loanRepo.GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if !actor.IsStaff() {
			member, err := memberRepo.GetByUserID(ctx, actor.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotLoanOwner
				}
				return err
			}
			if loan.MemberID != member.ID {
				return ErrNotLoanOwner
			}
		}
		if loan.Status != models.LoanStatusActive {
			return ErrLoanAlreadyReturned
		}

		// 2. Close the loan
		now := time.Now()
		loan.Status = models.LoanStatusReturned
		loan.ReturnedAt = &now
		loan.ReturnedByUserID = &actor.UserID
		if err := loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		// 3. Finalize the overdue fine, if any
		if days, amount := CalculateFine(loan.DueAt, now); days > 0 {
			fineAmount = amount
			if err := upsertPendingFine(ctx, fineRepo, loan, amount, now); err != nil {
				return err
			}
		}

		// 4. Put the copy back on the shelf
		if _, err := bookRepo.IncrementAvailable(ctx, loan.BookID); err != nil {
			return err
		}

		// 5. Hand the freed copy to the next waiting reservation
		return s.fulfillNextReservation(ctx, tx, loan.BookID)
	})
	if err != nil {
		return nil, err
	}

	if fineAmount > 0 {
		log.Printf("💰 Overdue return: loan_id=%d fine=₹%.2f", loanID, fineAmount)
	} else {
		log.Printf("📗 Loan returned: loan_id=%d", loanID)
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return loan.ToResponse(), nil
}

// fulfillNextReservation walks a book's reservation queue in order and
// issues the freed copy to the first eligible member. Members who are
// suspended or at their loan limit are skipped but stay in the queue.
// Loans created here are issued by the system admin account.
func (s *LendingService) fulfillNextReservation(ctx context.Context, tx *gorm.DB, bookID uint) error {
	bookRepo := repositories.NewBookRepository(tx)
	memberRepo := repositories.NewMemberRepository(tx)
	loanRepo := repositories.NewLoanRepository(tx)
	reservationRepo := repositories.NewReservationRepository(tx)
	userRepo := repositories.NewUserRepository(tx)

	queue, err := reservationRepo.ListActiveByBook(ctx, bookID)
	if err != nil || len(queue) == 0 {
		return err
	}

	admin, err := userRepo.GetFirstByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}

	for _, reservation := range queue {
		member, err := memberRepo.GetByID(ctx, reservation.MemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if member.Status != models.StatusActive {
			continue
		}

		active, err := loanRepo.CountByMemberAndStatus(ctx, member.ID, models.LoanStatusActive)
		if err != nil {
			return err
		}
		if active >= BorrowLimit {
			continue
		}

		// Take the copy we just freed
		ok, err := bookRepo.DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		now := time.Now()
		loan := &models.Loan{
			BookID:         bookID,
			MemberID:       member.ID,
			IssuedAt:       now,
			DueAt:          now.AddDate(0, 0, LoanPeriodDays),
			Status:         models.LoanStatusActive,
			IssuedByUserID: admin.ID,
		}
		if err := loanRepo.Create(ctx, loan); err != nil {
			return err
		}

		reservation.Status = models.ReservationStatusFulfilled
		if err := reservationRepo.Update(ctx, reservation); err != nil {
			return err
		}

		log.Printf("🎯 Reservation fulfilled: reservation_id=%d loan_id=%d member_id=%d",
			reservation.ID, loan.ID, member.ID)
		return nil
	}

	return nil
}

// upsertPendingFine updates the loan's pending fine to the final amount,
// or creates one when no sweep has run since the loan went overdue.
func upsertPendingFine(ctx context.Context, fineRepo *repositories.FineRepository, loan *models.Loan, amount float64, now time.Time) error {
	fine, err := fineRepo.GetPendingByLoan(ctx, loan.ID)
	if err == nil {
		fine.Amount = amount
		fine.CalculatedAt = now
		return fineRepo.Update(ctx, fine)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return fineRepo.Create(ctx, &models.Fine{
		LoanID:       loan.ID,
		MemberID:     loan.MemberID,
		Amount:       amount,
		Status:       models.FineStatusPending,
		CalculatedAt: now,
	})
}

// GetByID gets a loan by ID
func (s *LendingService) GetByID(ctx context.Context, id uint) (*models.LoanResponse, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan.ToResponse(), nil
}

// List lists loans, optionally filtered by status
func (s *LendingService) List(ctx context.Context, status string, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	loans, total, err := s.loanRepo.List(ctx, status, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toLoanResponses(loans), total, nil
}

// ListByMember lists a member's loans, optionally filtered by status
func (s *LendingService) ListByMember(ctx context.Context, memberID uint, status string, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	loans, total, err := s.loanRepo.ListByMember(ctx, memberID, status, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toLoanResponses(loans), total, nil
}

// ListOverdue lists active loans past their due date
func (s *LendingService) ListOverdue(ctx context.Context, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	loans, total, err := s.loanRepo.ListOverdue(ctx, time.Now(), params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toLoanResponses(loans), total, nil
}

func toLoanResponses(loans []*models.Loan) []*models.LoanResponse {
	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = loan.ToResponse()
	}
	return responses
}
