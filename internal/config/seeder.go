package config

import (
	"log"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedDefaultAccounts creates the default ADMIN and LIBRARIAN accounts if
// they do not exist. The admin account is also the issuer for loans created
// by automatic reservation fulfillment.
func SeedDefaultAccounts(db *gorm.DB) error {
	accounts := []struct {
		username string
		pass     string
		role     models.Role
	}{
		{getEnv("ADMIN_USERNAME", "admin"), getEnv("ADMIN_PASSWORD", "admin12345"), models.RoleAdmin},
		{getEnv("LIBRARIAN_USERNAME", "librarian"), getEnv("LIBRARIAN_PASSWORD", "librarian12345"), models.RoleLibrarian},
	}

	for _, a := range accounts {
		var count int64
		if err := db.Model(&models.User{}).Where("role = ?", a.role).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hashed, err := password.Hash(a.pass)
		if err != nil {
			return err
		}

		user := &models.User{
			Username: a.username,
			Password: hashed,
			Role:     a.role,
			Status:   models.StatusActive,
		}
		if err := db.Create(user).Error; err != nil {
			return err
		}

		log.Printf("✅ Seeded %s account: %s", a.role, a.username)
	}

	return nil
}
