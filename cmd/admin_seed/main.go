package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"

	"playarena/internal/config"
	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	adminUsername := config.GetEnv("ADMIN_USERNAME", "admin")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("failed to close PostgreSQL connection", zap.Error(err))
			}
		}
	}()

	ctx := context.Background()
	users := repositories.NewGormStore(db).Users()

	admin, err := users.GetByUsername(ctx, adminUsername)
	switch {
	case err == nil:
		log.Info("admin user already exists", zap.Uint("user_id", admin.ID))
	case errors.Is(err, repositories.ErrNotFound):
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}
		admin = &models.User{
			Username:      adminUsername,
			Email:         adminEmail,
			PasswordHash:  string(hashedPassword),
			Role:          models.RoleAdmin,
			IsKYCVerified: true,
		}
		if err := users.Create(ctx, admin); err != nil {
			log.Fatal("failed to create admin user", zap.Error(err))
		}
		log.Info("admin account created", zap.Uint("user_id", admin.ID))
	default:
		log.Fatal("failed to look up admin user", zap.Error(err))
	}

	// a bootstrap token for the first admin calls
	token, err := utils.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry, models.UserClaims{
		UserID:   admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
	})
	if err != nil {
		log.Fatal("failed to issue admin token", zap.Error(err))
	}
	stdlog.Printf("admin token (expires in %s):\n%s\n", cfg.JWT.Expiry, token)
}
