package db

import (
	"errors"
	"fmt"
	"log"

	"codeclover/internal/auth"
	"codeclover/internal/model"

	"gorm.io/gorm"
)

// SeedAdmin creates an initial active admin account when no admin exists
// yet. Without it a fresh install would have nobody able to activate
// registrations. A no-op when credentials are not configured.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var existing model.User
	err := db.Where("role = ?", model.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := model.User{
		Username:        "admin",
		Email:           email,
		PasswordHash:    hash,
		Role:            model.RoleAdmin,
		Active:          true,
		CanUploadImages: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("✓ Seeded initial admin account (%s)", email)
	return nil
}
