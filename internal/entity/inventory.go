package entity

import "time"

// DefaultCategory is assigned when an item is created without a category.
const DefaultCategory = "others"

// DbInventoryItem represents a catalog item. Every item is owned by exactly
// one user and ownership never transfers. Soft-deleted items keep their
// owner association for audit but are invisible to public reads.
type DbInventoryItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Price    float64 `gorm:"column:price;not null" json:"price"`
	Quantity int     `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Category string  `gorm:"column:category;type:varchar(255);index;not null" json:"category"`

	OwnerID uint    `gorm:"column:owner_id;index;not null" json:"owner_id"`
	Owner   *DbUser `gorm:"foreignKey:OwnerID" json:"-"`

	IsActive bool `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

// TableName 指定表名
func (DbInventoryItem) TableName() string {
	return "inventory_items"
}

// InventoryItem is the public item shape with an embedded owner summary.
type InventoryItem struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	Category  string      `json:"category"`
	Owner     UserSummary `json:"owner"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// MakeInventoryItem converts a db record to its public shape.
func MakeInventoryItem(item *DbInventoryItem) InventoryItem {
	if item == nil {
		return InventoryItem{}
	}
	out := InventoryItem{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  item.Quantity,
		Category:  item.Category,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Owner != nil {
		out.Owner = MakeUserSummary(item.Owner)
	} else {
		out.Owner = UserSummary{ID: item.OwnerID}
	}
	return out
}

type InventoryCreateRequest struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category"`
}

type InventoryUpdateRequest struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Category *string  `json:"category,omitempty"`
}

// InventoryQuery supports listing with owner/category filters and a
// case-insensitive substring match on name.
type InventoryQuery struct {
	BaseParams
	Category string `json:"category" form:"category" query:"category"`
	Name     string `json:"name" form:"name" query:"name"`
	// OwnerID and IncludeInactive are resolved server-side, never bound.
	OwnerID         uint `json:"-" form:"-" query:"-"`
	IncludeInactive bool `json:"-" form:"-" query:"-"`
}

type InventoryListResponse struct {
	Items []InventoryItem `json:"items"`
	Meta  *Meta           `json:"meta"`
}

// CategoryStats aggregates one category bucket.
type CategoryStats struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	TotalValue float64 `json:"total_value"`
	AvgPrice   float64 `json:"avg_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

// OverallStats aggregates the whole active catalog (or one owner's slice).
type OverallStats struct {
	Count      int64   `json:"count"`
	TotalValue float64 `json:"total_value"`
	AvgPrice   float64 `json:"avg_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

type InventoryStatsResponse struct {
	Overall    OverallStats    `json:"overall"`
	ByCategory []CategoryStats `json:"by_category"`
}

type InventoryExportResponse struct {
	Key   string `json:"key"`
	Items int    `json:"items"`
}
