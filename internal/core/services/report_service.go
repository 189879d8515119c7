package services

import (
	"context"
	"errors"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
)

// DefaultReportLimit caps ranking reports when no limit is given
const DefaultReportLimit = 10

var ErrInvalidDateRange = errors.New("from date must be before to date")

// ReportService produces library-wide aggregates for staff dashboards
type ReportService struct {
	bookRepo        *repositories.BookRepository
	loanRepo        *repositories.LoanRepository
	fineRepo        *repositories.FineRepository
	reservationRepo *repositories.ReservationRepository
	memberRepo      *repositories.MemberRepository
}

// NewReportService creates a new report service
func NewReportService(
	bookRepo *repositories.BookRepository,
	loanRepo *repositories.LoanRepository,
	fineRepo *repositories.FineRepository,
	reservationRepo *repositories.ReservationRepository,
	memberRepo *repositories.MemberRepository,
) *ReportService {
	return &ReportService{
		bookRepo:        bookRepo,
		loanRepo:        loanRepo,
		fineRepo:        fineRepo,
		reservationRepo: reservationRepo,
		memberRepo:      memberRepo,
	}
}

// Summary is the library-wide dashboard snapshot
type Summary struct {
	TotalBooks         int64   `json:"total_books"`
	TotalCopies        int64   `json:"total_copies"`
	AvailableCopies    int64   `json:"available_copies"`
	TotalMembers       int64   `json:"total_members"`
	ActiveLoans        int64   `json:"active_loans"`
	OverdueLoans       int64   `json:"overdue_loans"`
	ActiveReservations int64   `json:"active_reservations"`
	PendingFines       int64   `json:"pending_fines"`
	PendingFineAmount  float64 `json:"pending_fine_amount"`
	CollectedAmount    float64 `json:"collected_amount"`
	GeneratedAt        string  `json:"generated_at"`
}

// GetSummary builds the dashboard snapshot
func (s *ReportService) GetSummary(ctx context.Context) (*Summary, error) {
	now := time.Now()
	summary := &Summary{GeneratedAt: now.Format(time.RFC3339)}

	var err error
	if summary.TotalBooks, err = s.bookRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if summary.TotalCopies, summary.AvailableCopies, err = s.bookRepo.SumCopies(ctx); err != nil {
		return nil, err
	}
	if summary.TotalMembers, err = s.memberRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if summary.ActiveLoans, err = s.loanRepo.CountByStatus(ctx, models.LoanStatusActive); err != nil {
		return nil, err
	}
	if summary.OverdueLoans, err = s.loanRepo.CountOverdue(ctx, now); err != nil {
		return nil, err
	}
	if summary.ActiveReservations, err = s.reservationRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	if summary.PendingFines, err = s.fineRepo.CountByStatus(ctx, models.FineStatusPending); err != nil {
		return nil, err
	}
	if summary.PendingFineAmount, err = s.fineRepo.SumByStatus(ctx, models.FineStatusPending); err != nil {
		return nil, err
	}
	if summary.CollectedAmount, err = s.fineRepo.SumByStatus(ctx, models.FineStatusSettled); err != nil {
		return nil, err
	}

	return summary, nil
}

// MostBorrowedBooks ranks books by all-time loan count, optionally within
// a category
func (s *ReportService) MostBorrowedBooks(ctx context.Context, category string, limit int) ([]repositories.BookBorrowCount, error) {
	if limit < 1 || limit > pagination.MaxLimit {
		limit = DefaultReportLimit
	}
	return s.loanRepo.MostBorrowedBooks(ctx, category, limit)
}

// MostActiveMembers ranks members by all-time loan count
func (s *ReportService) MostActiveMembers(ctx context.Context, limit int) ([]repositories.MemberLoanCount, error) {
	if limit < 1 || limit > pagination.MaxLimit {
		limit = DefaultReportLimit
	}
	return s.loanRepo.MostActiveMembers(ctx, limit)
}

// LoansIssuedBetween lists loans issued within [from, to), oldest first
func (s *ReportService) LoansIssuedBetween(ctx context.Context, from, to time.Time, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	if !from.Before(to) {
		return nil, 0, ErrInvalidDateRange
	}

	loans, total, err := s.loanRepo.ListIssuedBetween(ctx, from, to, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toLoanResponses(loans), total, nil
}

// LoansReturnedBetween lists loans returned within [from, to), oldest first
func (s *ReportService) LoansReturnedBetween(ctx context.Context, from, to time.Time, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	if !from.Before(to) {
		return nil, 0, ErrInvalidDateRange
	}

	loans, total, err := s.loanRepo.ListReturnedBetween(ctx, from, to, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	return toLoanResponses(loans), total, nil
}

// OverdueLoans lists active loans past their due date with the fine each
// would owe if returned now
type OverdueLoanRow struct {
	*models.LoanResponse
	DaysOverdue int     `json:"days_overdue"`
	AccruedFine float64 `json:"accrued_fine"`
}

// ListOverdue lists overdue loans with accrued fine amounts
func (s *ReportService) ListOverdue(ctx context.Context, params *pagination.Params) ([]*OverdueLoanRow, int64, error) {
	now := time.Now()
	loans, total, err := s.loanRepo.ListOverdue(ctx, now, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*OverdueLoanRow, len(loans))
	for i, loan := range loans {
		days, amount := CalculateFine(loan.DueAt, now)
		rows[i] = &OverdueLoanRow{
			LoanResponse: loan.ToResponse(),
			DaysOverdue:  days,
			AccruedFine:  amount,
		}
	}
	return rows, total, nil
}
