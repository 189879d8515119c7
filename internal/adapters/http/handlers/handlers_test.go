package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/http/middleware"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Password: "x",
		Role:     role,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedMemberProfile(t *testing.T, db *gorm.DB, user *models.User) *models.Member {
	t.Helper()

	member := &models.Member{
		UserID:   user.ID,
		FullName: user.Username,
		Email:    user.Username + "@example.org",
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

// newTestApp mounts the lending and fine routes behind a stub auth
// middleware acting as the given account
func newTestApp(db *gorm.DB, userID uint, role models.Role) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("role", string(role))
		return c.Next()
	})

	lendingHandler := NewLendingHandler(services.NewLendingService(db, repositories.NewLoanRepository(db)))
	fineHandler := NewFineHandler(services.NewFineService(db, repositories.NewFineRepository(db)))

	app.Post("/loans", lendingHandler.Borrow)
	app.Post("/fines/:id/pay", middleware.LibrarianOnly(), fineHandler.Pay)
	return app
}

func TestBorrowUnavailableIsBadRequest(t *testing.T) {
	db := setupHandlerDB(t)
	librarian := seedAccount(t, db, "librarian", models.RoleLibrarian)
	member := seedMemberProfile(t, db, seedAccount(t, db, "alice", models.RoleMember))

	book := &models.Book{
		ISBN: "978-0441013593", Title: "Dune", Author: "Frank Herbert",
		Category: "Fiction", TotalCopies: 1, AvailableCopies: 0,
	}
	require.NoError(t, db.Create(book).Error)

	app := newTestApp(db, librarian.ID, librarian.Role)

	body := fiber.Map{"book_id": book.ID, "member_id": member.ID}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "Bad Request", errBody.Error)
	assert.Equal(t, "No copies of this book are available", errBody.Message)
}

func seedPendingFine(t *testing.T, db *gorm.DB, issuerID uint) *models.Fine {
	t.Helper()

	member := seedMemberProfile(t, db, seedAccount(t, db, "alice", models.RoleMember))
	book := &models.Book{
		ISBN: "978-0553293357", Title: "Foundation", Author: "Isaac Asimov",
		Category: "Fiction", TotalCopies: 1, AvailableCopies: 1,
	}
	require.NoError(t, db.Create(book).Error)

	now := time.Now()
	loan := &models.Loan{
		BookID: book.ID, MemberID: member.ID,
		IssuedAt: now.AddDate(0, 0, -20), DueAt: now.AddDate(0, 0, -5),
		Status: models.LoanStatusActive, IssuedByUserID: issuerID,
	}
	require.NoError(t, db.Create(loan).Error)

	fine := &models.Fine{
		LoanID: loan.ID, MemberID: member.ID, Amount: 25,
		Status: models.FineStatusPending, CalculatedAt: now,
	}
	require.NoError(t, db.Create(fine).Error)
	return fine
}

func TestPayFineWithoutBody(t *testing.T) {
	db := setupHandlerDB(t)
	librarian := seedAccount(t, db, "librarian", models.RoleLibrarian)
	fine := seedPendingFine(t, db, librarian.ID)

	app := newTestApp(db, librarian.ID, librarian.Role)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/fines/%d/pay", fine.ID), nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var row models.Fine
	require.NoError(t, db.First(&row, fine.ID).Error)
	assert.Equal(t, models.FineStatusSettled, row.Status)
	assert.NotEmpty(t, row.PaymentRef)
}

func TestPayFineForbiddenForAdmin(t *testing.T) {
	db := setupHandlerDB(t)
	admin := seedAccount(t, db, "admin", models.RoleAdmin)
	fine := seedPendingFine(t, db, admin.ID)

	app := newTestApp(db, admin.ID, admin.Role)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/fines/%d/pay", fine.ID), nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var row models.Fine
	require.NoError(t, db.First(&row, fine.ID).Error)
	assert.Equal(t, models.FineStatusPending, row.Status)
}
