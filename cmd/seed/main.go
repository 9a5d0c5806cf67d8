// Command seed prepares a database: it applies the schema and creates the
// configured admin account. Safe to run repeatedly.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/db"
	"github.com/storefront/catalogapi/internal/observability"
	"github.com/storefront/catalogapi/internal/repo/postgres"
	"github.com/storefront/catalogapi/internal/security"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info("schema up to date")

	created, err := db.EnsureAdminUser(ctx, postgres.NewUsersRepo(pool, nil), security.NewHasher(cfg.BcryptCost), cfg)
	if err != nil {
		return err
	}

	switch {
	case created:
		log.Info("admin user created", "email", cfg.AdminEmail)
	case cfg.AdminEmail == "" || cfg.AdminPassword == "":
		log.Info("ADMIN_EMAIL/ADMIN_PASSWORD not set, no admin seeded")
	default:
		log.Info("admin user already exists", "email", cfg.AdminEmail)
	}
	return nil
}
