package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farellandr/donatrack/internal/handlers"
	"github.com/farellandr/donatrack/internal/models"
)

const minPasswordLength = 8

// seedAdmin creates the account, or resets the password, role and status of
// an existing account with the same email.
func seedAdmin(ctx context.Context, db *gorm.DB, name, email, password, role string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if !models.Role(role).Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := handlers.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.Role(role),
		Status:       models.UserStatusActive,
	}

	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "role", "status", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save admin: %v", err)
	}

	var stored models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load admin: %v", err)
	}
	return &stored, nil
}
