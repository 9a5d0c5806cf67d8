package db

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

// EnsureAdminUser creates the configured admin account once. It returns created=false
// when no admin is configured or the email is already registered.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher *security.Hasher, cfg config.Config) (created bool, err error) {
	email := user.NormalizeEmail(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err = users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	_, err = users.Create(ctx, user.NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance seeded it first
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
