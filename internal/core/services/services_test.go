package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// seedAdmin creates the admin account that fulfillment loans are issued by
func seedAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := &models.User{
		Username: "admin",
		Password: "x",
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

// seedMember creates a MEMBER user with its member profile
func seedMember(t *testing.T, db *gorm.DB, name string) *models.Member {
	t.Helper()

	user := &models.User{
		Username: name,
		Password: "x",
		Role:     models.RoleMember,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	member := &models.Member{
		UserID:   user.ID,
		FullName: name,
		Email:    name + "@example.org",
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

// seedBook creates a catalog entry with all copies on the shelf
func seedBook(t *testing.T, db *gorm.DB, title string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		ISBN:            fmt.Sprintf("978-%s-%d", title, copies),
		Title:           title,
		Author:          "Author of " + title,
		Category:        "Fiction",
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// asUser builds the acting principal for a seeded account
func asUser(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

// asMember builds the acting principal behind a member profile
func asMember(member *models.Member) Actor {
	return Actor{UserID: member.UserID, Role: models.RoleMember}
}

func newLendingService(db *gorm.DB) *LendingService {
	return NewLendingService(db, repositories.NewLoanRepository(db))
}

func newReservationService(db *gorm.DB) *ReservationService {
	return NewReservationService(db, repositories.NewReservationRepository(db))
}

func newFineService(db *gorm.DB) *FineService {
	return NewFineService(db, repositories.NewFineRepository(db))
}

func testParams() *pagination.Params {
	return &pagination.Params{Page: 1, Limit: 50, Offset: 0}
}

func timeNowPlusDay() time.Time {
	return time.Now().Add(24 * time.Hour)
}

// bookByID reloads a book row
func bookByID(t *testing.T, db *gorm.DB, id uint) *models.Book {
	t.Helper()

	var book models.Book
	require.NoError(t, db.First(&book, id).Error)
	return &book
}
