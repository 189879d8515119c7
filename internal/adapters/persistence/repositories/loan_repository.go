package repositories

import (
	"context"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// LoanRepository handles loan data access
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create creates a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with book and member preloaded
func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Member").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update updates a loan
func (r *LoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// CountByMemberAndStatus counts a member's loans in the given status
func (r *LoanRepository) CountByMemberAndStatus(ctx context.Context, memberID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("member_id = ? AND status = ?", memberID, status).
		Count(&count).Error
	return count, err
}

// List lists loans with pagination, newest first.
// Pass an empty status to list across all statuses.
func (r *LoanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("issued_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListByMember lists a member's loans, newest first
func (r *LoanRepository) ListByMember(ctx context.Context, memberID uint, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("member_id = ?", memberID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("issued_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListOverdue lists active loans whose due date has passed
func (r *LoanRepository) ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? AND due_at < ?", models.LoanStatusActive, now)

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("due_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListIssuedBetween lists loans issued in [from, to), oldest first
func (r *LoanRepository) ListIssuedBetween(ctx context.Context, from, to time.Time, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("issued_at >= ? AND issued_at < ?", from, to)

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("issued_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListReturnedBetween lists loans returned in [from, to), oldest first
func (r *LoanRepository) ListReturnedBetween(ctx context.Context, from, to time.Time, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("returned_at >= ? AND returned_at < ?", from, to)

	query.Count(&total)

	err := query.
		Preload("Book").
		Preload("Member").
		Order("returned_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// CountByStatus counts loans in the given status
func (r *LoanRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountOverdue counts active loans whose due date has passed
func (r *LoanRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? AND due_at < ?", models.LoanStatusActive, now).
		Count(&count).Error
	return count, err
}

// BookBorrowCount is a row in the most-borrowed-books report
type BookBorrowCount struct {
	BookID      uint   `json:"book_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Category    string `json:"category"`
	BorrowCount int64  `json:"borrow_count"`
}

// MostBorrowedBooks ranks books by all-time loan count.
// Pass an empty category to rank across the whole catalog.
func (r *LoanRepository) MostBorrowedBooks(ctx context.Context, category string, limit int) ([]BookBorrowCount, error) {
	var rows []BookBorrowCount

	query := r.db.WithContext(ctx).Table("loans").
		Select("books.id AS book_id, books.title, books.author, books.isbn, books.category, COUNT(loans.id) AS borrow_count").
		Joins("JOIN books ON books.id = loans.book_id").
		Where("books.deleted_at IS NULL")
	if category != "" {
		query = query.Where("books.category = ?", category)
	}

	err := query.
		Group("books.id, books.title, books.author, books.isbn, books.category").
		Order("borrow_count DESC, books.title ASC").
		Limit(limit).
		Scan(&rows).Error

	return rows, err
}

// MemberLoanCount is a row in the most-active-members report
type MemberLoanCount struct {
	MemberID  uint   `json:"member_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	LoanCount int64  `json:"loan_count"`
}

// MostActiveMembers ranks members by all-time loan count
func (r *LoanRepository) MostActiveMembers(ctx context.Context, limit int) ([]MemberLoanCount, error) {
	var rows []MemberLoanCount

	err := r.db.WithContext(ctx).Table("loans").
		Select("members.id AS member_id, members.full_name AS name, members.email, COUNT(loans.id) AS loan_count").
		Joins("JOIN members ON members.id = loans.member_id").
		Where("members.deleted_at IS NULL").
		Group("members.id, members.full_name, members.email").
		Order("loan_count DESC, members.full_name ASC").
		Limit(limit).
		Scan(&rows).Error

	return rows, err
}
