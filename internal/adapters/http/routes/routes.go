package routes

import (
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/http/handlers"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/http/middleware"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/config"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto the fiber app
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	fineRepo := repositories.NewFineRepository(db)

	// Services
	authService := services.NewAuthService(db, userRepo, refreshRepo, cfg)
	userService := services.NewUserService(db, userRepo, refreshRepo)
	memberService := services.NewMemberService(memberRepo, loanRepo, fineRepo)
	bookService := services.NewBookService(bookRepo)
	lendingService := services.NewLendingService(db, loanRepo)
	reservationService := services.NewReservationService(db, reservationRepo)
	fineService := services.NewFineService(db, fineRepo)
	reportService := services.NewReportService(bookRepo, loanRepo, fineRepo, reservationRepo, memberRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	memberHandler := handlers.NewMemberHandler(memberService, lendingService, fineService, reservationService)
	bookHandler := handlers.NewBookHandler(bookService, reservationService)
	lendingHandler := handlers.NewLendingHandler(lendingService)
	reservationHandler := handlers.NewReservationHandler(reservationService, memberService)
	fineHandler := handlers.NewFineHandler(fineService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Health check
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	// Auth routes (public, strict rate limit)
	auth := api.Group("/auth", middleware.NoCacheHeaders())
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", middleware.AuthRateLimiter(), authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// Catalog routes - browsing is public, mutation is staff-only
	books := api.Group("/books")
	books.Get("/", middleware.CacheControl(5*time.Minute), bookHandler.List)
	books.Get("/:id", middleware.CacheControl(5*time.Minute), bookHandler.GetByID)
	books.Post("/", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), bookHandler.Create)
	books.Put("/:id", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), bookHandler.Update)
	books.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), bookHandler.Delete)
	books.Get("/:id/queue", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), bookHandler.GetQueue)

	// Member self-service routes
	me := api.Group("/me", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	me.Get("/", memberHandler.GetMe)
	me.Put("/", memberHandler.UpdateMe)
	me.Get("/loans", memberHandler.GetMyLoans)
	me.Get("/fines", memberHandler.GetMyFines)
	me.Get("/reservations", memberHandler.GetMyReservations)

	// Reservation routes (any authenticated user; ownership enforced inside)
	reservations := api.Group("/reservations", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Delete("/:id", reservationHandler.Cancel)

	// Lending routes - members borrow and return for themselves,
	// listing and lookup stay behind the desk
	loans := api.Group("/loans", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	loans.Post("/", lendingHandler.Borrow)
	loans.Post("/:id/return", lendingHandler.Return)
	loans.Get("/", middleware.StaffOnly(), lendingHandler.List)
	loans.Get("/overdue", middleware.StaffOnly(), lendingHandler.ListOverdue)
	loans.Get("/:id", middleware.StaffOnly(), lendingHandler.GetByID)

	// Fine routes (staff only)
	fines := api.Group("/fines", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), middleware.NoCacheHeaders())
	fines.Get("/", fineHandler.List)
	fines.Get("/:id", fineHandler.GetByID)
	fines.Post("/:id/pay", middleware.LibrarianOnly(), fineHandler.Pay)

	// Member administration routes (staff only)
	members := api.Group("/members", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), middleware.NoCacheHeaders())
	members.Get("/", memberHandler.List)
	members.Get("/:id", memberHandler.GetByID)
	members.Get("/:id/loans", memberHandler.GetLoans)
	members.Get("/:id/fines", memberHandler.GetFines)

	// Report routes (staff only)
	reports := api.Group("/reports", middleware.AuthMiddleware(cfg), middleware.StaffOnly())
	reports.Get("/summary", reportHandler.GetSummary)
	reports.Get("/most-borrowed", reportHandler.MostBorrowed)
	reports.Get("/most-active-members", reportHandler.MostActiveMembers)
	reports.Get("/overdue", reportHandler.Overdue)
	reports.Get("/loans-issued", reportHandler.LoansIssued)
	reports.Get("/loans-returned", reportHandler.LoansReturned)

	// Account administration routes (admin only)
	users := api.Group("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), middleware.NoCacheHeaders())
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Patch("/:id/role", userHandler.ChangeRole)
	users.Patch("/:id/status", userHandler.ChangeStatus)
	users.Delete("/:id", userHandler.Delete)
}
