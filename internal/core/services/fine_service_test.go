package services

import (
	"context"
	"testing"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOverdueLoan(t *testing.T, db *gorm.DB, memberID, bookID, issuerID uint, daysOverdue int) *models.Loan {
	t.Helper()

	now := time.Now()
	loan := &models.Loan{
		BookID:         bookID,
		MemberID:       memberID,
		IssuedAt:       now.AddDate(0, 0, -(LoanPeriodDays + daysOverdue)),
		DueAt:          now.Add(-time.Duration(daysOverdue)*24*time.Hour - time.Hour),
		Status:         models.LoanStatusActive,
		IssuedByUserID: issuerID,
	}
	require.NoError(t, db.Create(loan).Error)
	return loan
}

func TestPayFine(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 1)
	svc := newFineService(db)
	ctx := context.Background()

	loan := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 4)
	fine := &models.Fine{
		LoanID:       loan.ID,
		MemberID:     member.ID,
		Amount:       4 * FinePerDay,
		Status:       models.FineStatusPending,
		CalculatedAt: time.Now(),
	}
	require.NoError(t, db.Create(fine).Error)

	paid, err := svc.Pay(ctx, fine.ID, PayInput{PaymentMethod: "CASH", PaymentRef: "RCPT-001"}, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.FineStatusSettled, paid.Status)
	require.NotNil(t, paid.SettledAt)
	require.NotNil(t, paid.SettledByUserID)
	assert.Equal(t, admin.ID, *paid.SettledByUserID)
	assert.Equal(t, "CASH", paid.PaymentMethod)
	assert.Equal(t, "RCPT-001", paid.PaymentRef)

	// Settlement is one-way
	_, err = svc.Pay(ctx, fine.ID, PayInput{PaymentMethod: "CASH"}, admin.ID)
	assert.ErrorIs(t, err, ErrFineAlreadySettled)
}

func TestPayFineWithoutDetails(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 1)
	svc := newFineService(db)

	loan := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 2)
	fine := &models.Fine{
		LoanID:       loan.ID,
		MemberID:     member.ID,
		Amount:       2 * FinePerDay,
		Status:       models.FineStatusPending,
		CalculatedAt: time.Now(),
	}
	require.NoError(t, db.Create(fine).Error)

	// Payment details are optional; a receipt ref is generated
	paid, err := svc.Pay(context.Background(), fine.ID, PayInput{}, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.FineStatusSettled, paid.Status)
	assert.NotEmpty(t, paid.PaymentRef)
}

func TestPayFineNotFound(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	svc := newFineService(db)

	_, err := svc.Pay(context.Background(), 42, PayInput{PaymentMethod: "CASH"}, admin.ID)
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestPendingDue(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 2)
	svc := newFineService(db)
	ctx := context.Background()

	first := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 2)
	second := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 3)

	require.NoError(t, db.Create(&models.Fine{
		LoanID: first.ID, MemberID: member.ID, Amount: 2 * FinePerDay,
		Status: models.FineStatusPending, CalculatedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.Fine{
		LoanID: second.ID, MemberID: member.ID, Amount: 3 * FinePerDay,
		Status: models.FineStatusSettled, CalculatedAt: time.Now(),
	}).Error)

	due, err := svc.PendingDue(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*FinePerDay, due)
}

func TestOverdueSweep(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 3)
	sweep := NewOverdueSweepService(db, "0 2 * * *")
	ctx := context.Background()

	overdue := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 3)
	staleFine := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 6)
	require.NoError(t, db.Create(&models.Fine{
		LoanID: staleFine.ID, MemberID: member.ID, Amount: 2 * FinePerDay,
		Status: models.FineStatusPending, CalculatedAt: time.Now().AddDate(0, 0, -4),
	}).Error)

	// A loan still inside its period is left alone
	current := &models.Loan{
		BookID: book.ID, MemberID: member.ID,
		IssuedAt: time.Now(), DueAt: time.Now().AddDate(0, 0, LoanPeriodDays),
		Status: models.LoanStatusActive, IssuedByUserID: admin.ID,
	}
	require.NoError(t, db.Create(current).Error)

	require.NoError(t, sweep.Sweep(ctx))

	var created models.Fine
	require.NoError(t, db.Where("loan_id = ?", overdue.ID).First(&created).Error)
	assert.Equal(t, models.FineStatusPending, created.Status)
	assert.Equal(t, 3*FinePerDay, created.Amount)

	var refreshed models.Fine
	require.NoError(t, db.Where("loan_id = ? AND status = ?", staleFine.ID, models.FineStatusPending).
		First(&refreshed).Error)
	assert.Equal(t, 6*FinePerDay, refreshed.Amount)

	var count int64
	db.Model(&models.Fine{}).Where("loan_id = ?", current.ID).Count(&count)
	assert.Zero(t, count)
}

func TestOverdueSweepIdempotent(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 1)
	sweep := NewOverdueSweepService(db, "0 2 * * *")
	ctx := context.Background()

	loan := seedOverdueLoan(t, db, member.ID, book.ID, admin.ID, 2)

	require.NoError(t, sweep.Sweep(ctx))
	require.NoError(t, sweep.Sweep(ctx))

	var count int64
	db.Model(&models.Fine{}).Where("loan_id = ?", loan.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}
