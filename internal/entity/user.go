package entity

import "time"

const (
	UserRoleSuperAdmin = "super_admin"
	UserRoleAdmin      = "admin"
	UserRoleUser       = "user"
)

// DbUser represents a persisted user account. Accounts are never physically
// removed: deletion flips IsActive and cascades to owned inventory.
type DbUser struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"column:email;type:varchar(255);index;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Age          int       `gorm:"column:age" json:"age"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsPrivileged reports whether the user's role carries cross-owner rights.
func (u *DbUser) IsPrivileged() bool {
	if u == nil {
		return false
	}
	return u.Role == UserRoleAdmin || u.Role == UserRoleSuperAdmin
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MakeUserSummary strips credentials and lifecycle flags from a user record.
func MakeUserSummary(user *DbUser) UserSummary {
	if user == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Age:       user.Age,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// AdminUserSummary is the audit-facing variant that exposes the active flag.
type AdminUserSummary struct {
	UserSummary
	IsActive bool `json:"is_active"`
}

// MakeAdminUserSummary builds the audit variant.
func MakeAdminUserSummary(user *DbUser) AdminUserSummary {
	return AdminUserSummary{
		UserSummary: MakeUserSummary(user),
		IsActive:    user != nil && user.IsActive,
	}
}

// UserQuery supports listing users with pagination (admin only).
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
	// IncludeInactive is an audit switch, never bound from the request.
	IncludeInactive bool `json:"-" form:"-" query:"-"`
}

type AuthSignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Age      *int   `json:"age,omitempty"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// ProfileUpdateRequest carries the self-service mutable fields. Email and
// role are immutable after signup; unknown fields are rejected upstream.
type ProfileUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

// UserCreateRequest is the super-admin payload for creating accounts with a
// chosen role.
type UserCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Age      *int   `json:"age,omitempty"`
	Role     string `json:"role" binding:"required"`
}

type UserListResponse struct {
	Users []AdminUserSummary `json:"users"`
	Meta  *Meta              `json:"meta"`
}
