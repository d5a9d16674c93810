package sql

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/entity"

	"gorm.io/gorm"
)

// CreateInventoryItem inserts a new inventory item.
func (r *GormRepository) CreateInventoryItem(ctx context.Context, item *entity.DbInventoryItem) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if item == nil {
		return fmt.Errorf("item is nil")
	}
	if item.OwnerID == 0 {
		return fmt.Errorf("item owner is required")
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// GetInventoryItemByID loads an item with its owner preloaded. Public reads
// exclude soft-deleted items; audit callers pass includeInactive.
func (r *GormRepository) GetInventoryItemByID(ctx context.Context, id uint, includeInactive bool) (*entity.DbInventoryItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid item id")
	}
	query := r.db.WithContext(ctx).Preload("Owner")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var item entity.DbInventoryItem
	if err := query.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListInventoryItems retrieves paginated items with optional owner, category
// and case-insensitive name filters.
func (r *GormRepository) ListInventoryItems(ctx context.Context, params *entity.InventoryQuery) ([]entity.DbInventoryItem, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).
		Model(&entity.DbInventoryItem{}).
		Preload("Owner")
	if params == nil || !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if params != nil {
		if params.OwnerID > 0 {
			query = query.Where("owner_id = ?", params.OwnerID)
		}
		if trimmed := strings.TrimSpace(params.Category); trimmed != "" {
			query = query.Where("category = ?", trimmed)
		}
		if name := strings.TrimSpace(params.Name); name != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
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

	var items []entity.DbInventoryItem
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return items, meta, nil
}

// UpdateInventoryConditional applies a patch to an active item. When a scope
// is present the filter also pins the owner, so authorization and mutation
// happen in one statement; 0 rows means the filter no longer matched.
func (r *GormRepository) UpdateInventoryConditional(ctx context.Context, id uint, scope *entity.OwnerScope, updates entity.InventoryUpdates) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid item id")
	}
	fields := updates.ToMap()
	if len(fields) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.DbInventoryItem{}).
		Where("id = ? AND is_active = ?", id, true)
	if scope != nil {
		query = query.Where("owner_id = ?", scope.OwnerID)
	}
	result := query.Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeactivateInventoryConditional soft-deletes one item, zeroing its quantity
// in the same conditional statement.
func (r *GormRepository) DeactivateInventoryConditional(ctx context.Context, id uint, scope *entity.OwnerScope) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid item id")
	}
	query := r.db.WithContext(ctx).
		Model(&entity.DbInventoryItem{}).
		Where("id = ? AND is_active = ?", id, true)
	if scope != nil {
		query = query.Where("owner_id = ?", scope.OwnerID)
	}
	result := query.Updates(map[string]interface{}{
		"is_active": false,
		"quantity":  0,
	})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeactivateInventoryByOwner soft-deletes every active item of one owner.
// Items that are already inactive are untouched, so the cascade never
// double-processes them.
func (r *GormRepository) DeactivateInventoryByOwner(ctx context.Context, ownerID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return 0, fmt.Errorf("invalid owner id")
	}
	result := r.db.WithContext(ctx).
		Model(&entity.DbInventoryItem{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"quantity":  0,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// InventoryStats aggregates the active catalog, optionally narrowed to one
// owner: overall totals plus per-category buckets ordered by total value.
func (r *GormRepository) InventoryStats(ctx context.Context, ownerID uint) (*entity.InventoryStatsResponse, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&entity.DbInventoryItem{}).
			Where("is_active = ?", true)
		if ownerID > 0 {
			q = q.Where("owner_id = ?", ownerID)
		}
		return q
	}

	stats := &entity.InventoryStatsResponse{ByCategory: []entity.CategoryStats{}}

	var overall struct {
		Count      int64
		TotalValue float64
		AvgPrice   float64
		MinPrice   float64
		MaxPrice   float64
	}
	err := base().
		Select("COUNT(*) AS count, COALESCE(SUM(price * quantity), 0) AS total_value, COALESCE(AVG(price), 0) AS avg_price, COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").
		Scan(&overall).Error
	if err != nil {
		return nil, err
	}
	stats.Overall = entity.OverallStats{
		Count:      overall.Count,
		TotalValue: overall.TotalValue,
		AvgPrice:   overall.AvgPrice,
		MinPrice:   overall.MinPrice,
		MaxPrice:   overall.MaxPrice,
	}

	var buckets []entity.CategoryStats
	err = base().
		Select("category, COUNT(*) AS count, COALESCE(SUM(price * quantity), 0) AS total_value, COALESCE(AVG(price), 0) AS avg_price, COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").
		Group("category").
		Order("total_value DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	if buckets != nil {
		stats.ByCategory = buckets
	}

	return stats, nil
}

// ListActiveInventoryForExport returns the whole active catalog ordered by
// id, owners preloaded.
func (r *GormRepository) ListActiveInventoryForExport(ctx context.Context) ([]entity.DbInventoryItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var items []entity.DbInventoryItem
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
