package model

import (
	"context"
	"errors"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/entity"
	"stockroom/internal/validation"

	"gorm.io/gorm"
)

// EnsureSuperAdmin makes sure the configured super admin account exists and
// is active. Signup can never produce this role, so bootstrap is the only
// path that creates it.
func EnsureSuperAdmin(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := validation.NormalizeEmail(cfg.SuperAdminEmail)
	password := strings.TrimSpace(cfg.SuperAdminPassword)
	if email == "" || password == "" {
		return nil
	}

	existing, err := repo.GetActiveUserByEmail(ctx, email)
	switch {
	case err == nil:
		return promoteSuperAdmin(ctx, repo, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return createSuperAdmin(ctx, repo, cfg, email, password)
	default:
		return err
	}
}

func createSuperAdmin(ctx context.Context, repo Repository, cfg config.Config, email, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(cfg.SuperAdminName)
	if name == "" {
		name = "Super Admin"
	}

	user := entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         entity.UserRoleSuperAdmin,
		IsActive:     true,
	}
	return repo.CreateUser(ctx, &user)
}

// promoteSuperAdmin repairs an account that exists under the configured email
// but lost the role, e.g. after a manual database edit.
func promoteSuperAdmin(ctx context.Context, repo Repository, existing *entity.DbUser) error {
	if existing == nil || existing.Role == entity.UserRoleSuperAdmin {
		return nil
	}
	role := entity.UserRoleSuperAdmin
	updates := entity.UserUpdates{Role: &role}
	_, err := repo.UpdateUserFields(ctx, existing.ID, updates)
	return err
}
