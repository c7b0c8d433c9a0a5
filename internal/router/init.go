package router

import (
	"context"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-account-service/internal/infrastructure/search"
	"github.com/oksasatya/go-account-service/internal/infrastructure/storage"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/internal/router/modules"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// BuildDeps assembles the application dependencies from the container singletons.
func BuildDeps() *application.Deps {
	cfg := container.GetConfig()
	rdb := container.GetRedis()

	var images repo.ImageStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		images = storage.NewGCSImageStore(gcs, cfg.GCSBucket)
	}
	var index repo.AccountIndex = search.NoopAccountIndex{}
	if es := container.GetES(); es != nil {
		index = search.NewESAccountIndex(es, cfg.ESAccountsIndex)
	}

	return &application.Deps{
		Accounts: pginfra.NewAccountRepository(container.GetPGPool()),
		Sessions: redisstore.NewSessionStore(rdb, cfg.SessionSecret),
		Ledger:   redisstore.NewTokenLedger(rdb),
		Images:   images,
		Index:    index,
		Mailer:   container.GetMailer(),
		Hasher:   helpers.NewPasswordHasher(cfg.BcryptCost),
		Tokens:   helpers.NewTokenManager(cfg.PendingTokenSecret, cfg.PendingTokenTTL),
		Logger:   container.GetLogger(),
		Cfg:      cfg,
	}
}

func healthChecks() map[string]handlers.Check {
	return map[string]handlers.Check{
		"postgres": func(ctx context.Context) error { return container.GetPGPool().Ping(ctx) },
		"redis":    func(ctx context.Context) error { return container.GetRedis().Ping(ctx).Err() },
	}
}

// InitModules initializes all application modules and registers them with the router registry.
// It should be called once during startup, after the container is populated.
func InitModules(r *Registry) {
	RegisterModules(r, BuildDeps(), healthChecks())
}

// RegisterModules wires handlers, guards and modules for the given dependencies.
func RegisterModules(r *Registry, d *application.Deps, checks map[string]handlers.Check) {
	cfg := d.Cfg
	userCookie := helpers.NewCookie(helpers.UserSessionCookie, cfg.CookieDomain, cfg.CookieSecure)
	adminCookie := helpers.NewCookie(helpers.AdminSessionCookie, cfg.CookieDomain, cfg.CookieSecure)

	auth := application.NewAuthService(d)
	accounts := application.NewAccountService(d)
	admin := application.NewAdminService(d)

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(checks, d.Logger)))
	r.Add(modules.NewUserModule(
		handlers.NewUserHandler(auth, accounts, d.Logger, userCookie),
		middleware.NewSessionGuard(userCookie, entity.AudienceUser, d.Sessions, d.Accounts, d.Logger),
	))
	r.Add(modules.NewAdminModule(
		handlers.NewAdminHandler(admin, auth, d.Logger, adminCookie),
		middleware.NewSessionGuard(adminCookie, entity.AudienceAdmin, d.Sessions, d.Accounts, d.Logger),
	))
}
