package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/http/middleware"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/http/routes"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/config"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title Library Management System API
// @version 1.0
// @description Backend for catalog, member, lending, reservation and fine management.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the default admin and librarian accounts
	if err := config.SeedDefaultAccounts(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed default accounts: %v", err)
	}

	// Start the daily overdue fine sweep
	sweep := services.NewOverdueSweepService(db, cfg.Lending.SweepSchedule)
	if err := sweep.Start(); err != nil {
		log.Fatalf("❌ Failed to schedule fine sweep: %v", err)
	}
	defer sweep.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Library Management System v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
