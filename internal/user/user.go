package user

import (
	"context"
	"time"

	"github.com/frahmantamala/planning-admin/internal/permission"
)

// Profile is the stored account of the current user.
type Profile struct {
	ID        int64      `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Membership is one organization the user can act in.
type Membership struct {
	ID               string    `json:"id" db:"id"`
	OrganizationID   string    `json:"organization_id" db:"organization_id"`
	OrganizationName string    `json:"organization_name" db:"organization_name"`
	RoleName         *string   `json:"role_name" db:"role_name"`
	IsOrgAdmin       bool      `json:"is_org_admin" db:"is_org_admin"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type RoleSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Me is the body of GET /users/me.
type Me struct {
	Profile
	Roles                 []RoleSummary     `json:"roles"`
	IsSystemManager       bool              `json:"is_system_manager"`
	Permissions           permission.Matrix `json:"permissions"`
	DefaultOrganizationID *string           `json:"default_organization_id"`
	Organizations         []Membership      `json:"organizations"`
}

// Permissions is the body of GET /users/me/permissions.
type Permissions struct {
	OrganizationID *string           `json:"organization_id"`
	IsOrgAdmin     bool              `json:"is_org_admin"`
	Permissions    permission.Matrix `json:"permissions"`
}

// Repository reads the current user. GetProfile reports absence as nil.
type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	ListMemberships(ctx context.Context, userID int64) ([]Membership, error)
}
