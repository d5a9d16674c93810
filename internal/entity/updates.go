package entity

// UserUpdates 用户更新字段
type UserUpdates struct {
	Name         *string
	PasswordHash *string
	Age          *int
	Role         *string
	IsActive     *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.Age != nil {
		updates["age"] = *u.Age
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// OwnerScope narrows a conditional inventory write to a single owner. A nil
// scope means the caller is privileged and may touch any owner's items.
type OwnerScope struct {
	OwnerID uint
}

// InventoryUpdates 库存条目更新字段
type InventoryUpdates struct {
	Name     *string
	Price    *float64
	Quantity *int
	Category *string
	IsActive *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u InventoryUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Price != nil {
		updates["price"] = *u.Price
	}
	if u.Quantity != nil {
		updates["quantity"] = *u.Quantity
	}
	if u.Category != nil {
		updates["category"] = *u.Category
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u InventoryUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
