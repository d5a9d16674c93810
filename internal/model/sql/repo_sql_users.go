package sql

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/entity"
)

// CreateUser persists a new user record.
func (r *GormRepository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID loads a user by ID. Public reads exclude soft-deleted
// accounts; audit callers pass includeInactive.
func (r *GormRepository) GetUserByID(ctx context.Context, id uint, includeInactive bool) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	query := r.db.WithContext(ctx)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var user entity.DbUser
	if err := query.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetActiveUserByEmail loads an active user by email. Soft-deleted accounts
// never match, which is what frees their address for re-registration.
func (r *GormRepository) GetActiveUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, fmt.Errorf("email is empty")
	}

	var user entity.DbUser
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND is_active = ?", strings.ToLower(trimmed), true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns paginated users, active only unless the query carries
// the audit switch.
func (r *GormRepository) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbUser{})
	if params == nil || !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if params != nil {
		if trimmed := strings.TrimSpace(params.Role); trimmed != "" {
			query = query.Where("role = ?", trimmed)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", kw, kw)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var base *entity.BaseParams
	if params != nil {
		base = &params.BaseParams
	}
	page, pageSize := resolvePage(base)
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var users []entity.DbUser
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return users, meta, nil
}

// UpdateUserFields applies a patch to an active user. The active-state check
// sits inside the UPDATE filter so a concurrent deactivation cannot be
// overwritten; 0 rows means the precondition no longer held.
func (r *GormRepository) UpdateUserFields(ctx context.Context, id uint, updates entity.UserUpdates) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	fields := updates.ToMap()
	if len(fields) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&entity.DbUser{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeactivateUser flips the active flag off. The conditional filter makes the
// call idempotent: a second call matches no rows.
func (r *GormRepository) DeactivateUser(ctx context.Context, id uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	result := r.db.WithContext(ctx).
		Model(&entity.DbUser{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountUsersByRole returns how many active users hold the given role.
func (r *GormRepository) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.DbUser{}).
		Where("role = ? AND is_active = ?", role, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
