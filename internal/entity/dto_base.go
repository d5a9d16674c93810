package entity

// Meta 包含分页元数据。
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
	Total    int64 `json:"total"`
}

// BaseParams 包含通用的分页参数。
type BaseParams struct {
	PageSize int64 `json:"page_size" form:"page_size" query:"page_size"`
	Page     int64 `json:"page" form:"page" query:"page"`
}

const (
	// DefaultPageSize is applied when a listing request omits page_size.
	DefaultPageSize = 20
	// MaxPageSize is the server-enforced ceiling for page_size.
	MaxPageSize = 100
)

// Normalize clamps pagination parameters to sane bounds.
func (p *BaseParams) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}
