package sql

import (
	"stockroom/internal/entity"

	"gorm.io/gorm"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// calculatePagination calculates pagination metrics
func (r *GormRepository) calculatePagination(totalCount int64, page, pageSize int) *entity.Meta {
	if pageSize <= 0 {
		pageSize = entity.DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	return &entity.Meta{
		Total:    totalCount,
		Page:     int64(page),
		PageSize: int64(pageSize),
	}
}

// resolvePage normalises page/page_size from query params and enforces the
// server-side page size ceiling.
func resolvePage(params *entity.BaseParams) (page, pageSize int) {
	page = 1
	pageSize = entity.DefaultPageSize
	if params == nil {
		return page, pageSize
	}
	if params.Page > 0 {
		page = int(params.Page)
	}
	if params.PageSize > 0 {
		pageSize = int(params.PageSize)
	}
	if pageSize > entity.MaxPageSize {
		pageSize = entity.MaxPageSize
	}
	return page, pageSize
}
