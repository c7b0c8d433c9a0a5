package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

// seed creates the bootstrap admin, or promotes and resets it when the email exists.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	email := entity.NormalizeEmail(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}
	if len(cfg.SeedAdminPassword) < validation.MinPasswordLength {
		logger.Fatalf("SEED_ADMIN_PASSWORD must be at least %d characters", validation.MinPasswordLength)
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	hash, err := helpers.NewPasswordHasher(cfg.BcryptCost).Hash(cfg.SeedAdminPassword)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}

	a := &entity.Account{Email: email, Name: cfg.SeedAdminName, PasswordHash: hash}
	if err := pginfra.NewAccountRepository(pool).UpsertAdmin(ctx, a); err != nil {
		logger.Fatalf("failed to seed admin: %v", err)
	}
	logger.WithField("id", a.ID).WithField("email", email).Info("admin seeded")
}
