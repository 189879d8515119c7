package services

import (
	"context"
	"testing"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportService(db *gorm.DB) *ReportService {
	return NewReportService(
		repositories.NewBookRepository(db),
		repositories.NewLoanRepository(db),
		repositories.NewFineRepository(db),
		repositories.NewReservationRepository(db),
		repositories.NewMemberRepository(db),
	)
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	bob := seedMember(t, db, "bob")
	dune := seedBook(t, db, "Dune", 2)
	foundation := seedBook(t, db, "Foundation", 1)
	lending := newLendingService(db)
	reservations := newReservationService(db)
	svc := newReportService(db)
	ctx := context.Background()

	_, err := lending.Borrow(ctx, BorrowInput{BookID: dune.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	foundationLoan, err := lending.Borrow(ctx, BorrowInput{BookID: foundation.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)

	_, err = reservations.Reserve(ctx, bob.ID, foundation.ID)
	require.NoError(t, err)

	// One loan goes overdue with a pending fine
	require.NoError(t, db.Model(&models.Loan{}).Where("id = ?", foundationLoan.ID).
		Update("due_at", time.Now().Add(-3*24*time.Hour-time.Hour)).Error)
	require.NoError(t, db.Create(&models.Fine{
		LoanID: foundationLoan.ID, MemberID: alice.ID, Amount: 3 * FinePerDay,
		Status: models.FineStatusPending, CalculatedAt: time.Now(),
	}).Error)

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.TotalBooks)
	assert.EqualValues(t, 3, summary.TotalCopies)
	assert.EqualValues(t, 1, summary.AvailableCopies)
	assert.EqualValues(t, 2, summary.TotalMembers)
	assert.EqualValues(t, 2, summary.ActiveLoans)
	assert.EqualValues(t, 1, summary.OverdueLoans)
	assert.EqualValues(t, 1, summary.ActiveReservations)
	assert.EqualValues(t, 1, summary.PendingFines)
	assert.Equal(t, 3*FinePerDay, summary.PendingFineAmount)
	assert.Zero(t, summary.CollectedAmount)
}

func TestMostBorrowedBooks(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	bob := seedMember(t, db, "bob")
	dune := seedBook(t, db, "Dune", 5)
	foundation := seedBook(t, db, "Foundation", 5)
	lending := newLendingService(db)
	svc := newReportService(db)
	ctx := context.Background()

	// Dune is borrowed twice, Foundation once
	loan, err := lending.Borrow(ctx, BorrowInput{BookID: dune.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Return(ctx, loan.ID, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Borrow(ctx, BorrowInput{BookID: dune.ID, MemberID: bob.ID}, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Borrow(ctx, BorrowInput{BookID: foundation.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)

	rows, err := svc.MostBorrowedBooks(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dune.ID, rows[0].BookID)
	assert.EqualValues(t, 2, rows[0].BorrowCount)
	assert.Equal(t, foundation.ID, rows[1].BookID)
	assert.EqualValues(t, 1, rows[1].BorrowCount)
}

func TestMostActiveMembers(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	bob := seedMember(t, db, "bob")
	book := seedBook(t, db, "Dune", 5)
	lending := newLendingService(db)
	svc := newReportService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		loan, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
		require.NoError(t, err)
		_, err = lending.Return(ctx, loan.ID, asUser(admin))
		require.NoError(t, err)
	}
	_, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: bob.ID}, asUser(admin))
	require.NoError(t, err)

	rows, err := svc.MostActiveMembers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, alice.ID, rows[0].MemberID)
	assert.EqualValues(t, 3, rows[0].LoanCount)
	assert.Equal(t, "alice", rows[0].Name)
}

func TestOverdueReport(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 1)
	svc := newReportService(db)

	seedOverdueLoan(t, db, alice.ID, book.ID, admin.ID, 4)

	rows, total, err := svc.ListOverdue(context.Background(), testParams())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].DaysOverdue)
	assert.Equal(t, 4*FinePerDay, rows[0].AccruedFine)
}

func TestLoanDateRangeReports(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 3)
	lending := newLendingService(db)
	svc := newReportService(db)
	ctx := context.Background()

	january := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	march := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	// One loan issued and returned in January, one issued in March
	janLoan, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Loan{}).Where("id = ?", janLoan.ID).
		Updates(map[string]interface{}{"issued_at": january, "returned_at": january.AddDate(0, 0, 4), "status": models.LoanStatusReturned}).Error)

	marLoan, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Loan{}).Where("id = ?", marLoan.ID).
		Update("issued_at", march).Error)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	issued, total, err := svc.LoansIssuedBetween(ctx, from, to, testParams())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, issued, 1)
	assert.Equal(t, janLoan.ID, issued[0].ID)

	returned, total, err := svc.LoansReturnedBetween(ctx, from, to, testParams())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, returned, 1)
	assert.Equal(t, janLoan.ID, returned[0].ID)

	_, _, err = svc.LoansIssuedBetween(ctx, to, from, testParams())
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestMemberStats(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 3)
	lending := newLendingService(db)
	memberSvc := NewMemberService(
		repositories.NewMemberRepository(db),
		repositories.NewLoanRepository(db),
		repositories.NewFineRepository(db),
	)
	ctx := context.Background()

	loan, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Return(ctx, loan.ID, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Fine{
		LoanID: loan.ID, MemberID: alice.ID, Amount: 10,
		Status: models.FineStatusPending, CalculatedAt: time.Now(),
	}).Error)

	profile, err := memberSvc.GetByID(ctx, alice.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, profile.TotalLoans)
	assert.EqualValues(t, 1, profile.ActiveLoans)
	assert.EqualValues(t, 1, profile.TotalFines)
	assert.EqualValues(t, 1, profile.PendingFines)
	assert.Equal(t, 10.0, profile.PendingDue)
	assert.Zero(t, profile.TotalPaid)
}
