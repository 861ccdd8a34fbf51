package user

import (
	"time"

	"github.com/frahmantamala/planning-admin/internal/permission"
)

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name"`
	LastName     string     `gorm:"column:last_name"`
	IsActive     bool       `gorm:"column:is_active;default:true"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Role is a system-wide role. Permissions hold a legacy list, "*" or a matrix.
type Role struct {
	ID          int64              `gorm:"primaryKey"`
	Name        string             `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string             `gorm:"column:display_name"`
	Description string             `gorm:"column:description"`
	Permissions permission.Payload `gorm:"column:permissions;type:jsonb"`
	IsSystem    bool               `gorm:"column:is_system"`
	Level       int                `gorm:"column:level"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type UserRole struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;not null;uniqueIndex:idx_user_roles_user_role"`
	RoleID    int64      `gorm:"column:role_id;not null;uniqueIndex:idx_user_roles_user_role"`
	GrantedBy *int64     `gorm:"column:granted_by"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
