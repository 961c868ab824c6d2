package db

import (
	"errors"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/ikkim/geonseol-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table owned by the service.
var Models = []interface{}{
	&model.KVEntry{},
	&model.Account{},
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	if err := DB.AutoMigrate(Models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(Models),
	})
	return nil
}

// SeedAdmin creates the admin account with the given password if it does
// not exist yet. An empty password skips seeding.
func SeedAdmin(db *gorm.DB, password string) error {
	if password == "" {
		logger.Debug("Admin password not configured, skipping admin seed")
		return nil
	}

	var existing model.Account
	err := db.Where("username = ?", model.AdminUsername).First(&existing).Error
	if err == nil {
		logger.Info("Admin account already exists, skipping...")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.Account{
		Username:     model.AdminUsername,
		PasswordHash: hash,
		DisplayName:  "관리자",
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Error("Failed to seed admin account", err)
		return err
	}

	logger.Info("Admin account seeded")
	return nil
}
