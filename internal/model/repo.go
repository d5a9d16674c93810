package model

import (
	"context"

	"stockroom/internal/entity"
)

// OwnerScope narrows a conditional inventory write to a single owner. A nil
// scope means the caller is privileged and may touch any owner's items.
// Defined in entity so the sql subpackage can reference it without importing
// this package.
type OwnerScope = entity.OwnerScope

// Repository 定义数据库操作接口
//
// Every mutation on an existing record is a conditional write: the filter
// re-checks active state (and ownership where it applies) at write time, so
// an authorization decision and the mutation it guards form one atomic
// statement. A zero rows-affected result signals that the precondition no
// longer held.
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	GetUserByID(ctx context.Context, id uint, includeInactive bool) (*entity.DbUser, error)
	GetActiveUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	// UpdateUserFields applies updates to an active user; returns the number
	// of matched rows (0 when the user vanished or was deactivated meanwhile).
	UpdateUserFields(ctx context.Context, id uint, updates entity.UserUpdates) (int64, error)
	// DeactivateUser flips the active flag; 0 rows means already inactive.
	DeactivateUser(ctx context.Context, id uint) (int64, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)

	// 库存管理
	CreateInventoryItem(ctx context.Context, item *entity.DbInventoryItem) error
	GetInventoryItemByID(ctx context.Context, id uint, includeInactive bool) (*entity.DbInventoryItem, error)
	ListInventoryItems(ctx context.Context, params *entity.InventoryQuery) ([]entity.DbInventoryItem, *entity.Meta, error)
	// UpdateInventoryConditional applies updates to an active item, optionally
	// scoped to an owner; 0 rows means the filter no longer matched.
	UpdateInventoryConditional(ctx context.Context, id uint, scope *OwnerScope, updates entity.InventoryUpdates) (int64, error)
	// DeactivateInventoryConditional soft-deletes one item and zeroes its
	// quantity under the same scoping rules.
	DeactivateInventoryConditional(ctx context.Context, id uint, scope *OwnerScope) (int64, error)
	// DeactivateInventoryByOwner soft-deletes every active item of an owner
	// and returns how many rows changed. Used by the account cascade.
	DeactivateInventoryByOwner(ctx context.Context, ownerID uint) (int64, error)
	InventoryStats(ctx context.Context, ownerID uint) (*entity.InventoryStatsResponse, error)
	// ListActiveInventoryForExport streams the full active catalog for the
	// audit export, ordered by id.
	ListActiveInventoryForExport(ctx context.Context) ([]entity.DbInventoryItem, error)
}
