// Command admin_seed creates the admin account and writes the default fee
// settings when the settings table is empty.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"apega/internal/config"
	applog "apega/internal/logger"
	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/fees"
	"apega/internal/services/settings"
	"apega/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := applog.Must(cfg.IsProduction())
	defer log.Sync() //nolint:errcheck

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" {
		log.Fatal("ADMIN_EMAIL must be set in environment")
	}

	generated := false
	if adminPassword == "" {
		adminPassword = utils.MustGenerateSecureCode()
		generated = true
	} else if !utils.StrongPassword(adminPassword) {
		log.Fatal("ADMIN_PASSWORD must be at least 8 characters and contain a digit and a special character")
	}

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repositories.NewUserRepository(db)
	if _, err := users.GetByEmail(ctx, adminEmail); err == nil {
		log.Info("admin user already exists", zap.String("email", adminEmail))
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		log.Fatal("failed to look up admin", zap.Error(err))
	} else {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}

		admin := &models.User{
			Email:        adminEmail,
			Password:     string(hashedPassword),
			Name:         "Administrador",
			Role:         models.RoleAdmin,
			TokenVersion: 1,
		}
		if err := users.Create(ctx, admin); err != nil {
			log.Fatal("failed to create admin user", zap.Error(err))
		}
		if generated {
			log.Info("generated admin password, store it now", zap.String("password", adminPassword))
		}
		log.Info("admin account created", zap.Uint("id", admin.ID))
	}

	defaults, err := cfg.Fees.Configuration()
	if err != nil {
		log.Fatal("invalid fee defaults", zap.Error(err))
	}
	if err := seedSettings(ctx, repositories.NewSettingsRepository(db), defaults, time.Now().UTC()); err != nil {
		log.Fatal("failed to seed fee settings", zap.Error(err))
	}
	log.Info("fee settings ready")
}

// seedSettings writes version 1 of every key unless some row already exists.
func seedSettings(ctx context.Context, repo repositories.SettingsRepository, defaults fees.Configuration, now time.Time) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	rows := make([]models.Setting, 0, len(settings.Keys()))
	for key, value := range settings.Values(defaults) {
		rows = append(rows, models.Setting{Key: key, Value: value, Version: 1, UpdatedAt: now})
	}
	return repo.Upsert(ctx, rows)
}
