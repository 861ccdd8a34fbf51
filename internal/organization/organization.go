package organization

import (
	"context"
	"encoding/json"
	"time"

	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/planning-admin/internal/permission"
)

// Organization is the full profile row.
type Organization = orgDatamodel.Organization

// Summary is one entry of the caller's organization list.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SetupStatus  string    `json:"setup_status"`
	MemberStatus string    `json:"member_status"`
	IsOrgAdmin   bool      `json:"is_org_admin"`
	RoleID       *string   `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role is an org role with its permissions already normalized.
type Role struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Name           string            `json:"name"`
	Permissions    permission.Matrix `json:"permissions"`
	IsSystem       bool              `json:"is_system"`
	IsActive       bool              `json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// RoleRef names a role without its permissions.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Member struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	Role          *RoleRef   `json:"role"`
	IsOrgAdmin    bool       `json:"is_org_admin"`
	InvitedAt     *time.Time `json:"invited_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SetupStatus struct {
	OrganizationID   string     `json:"organization_id"`
	SetupStatus      string     `json:"setup_status"`
	SetupCompletedAt *time.Time `json:"setup_completed_at"`
	SetupSkippedAt   *time.Time `json:"setup_skipped_at"`
}

// MyPermissions describes the caller's standing in one organization.
type MyPermissions struct {
	OrganizationID  string            `json:"organization_id"`
	Role            *RoleRef          `json:"role"`
	IsOrgAdmin      bool              `json:"is_org_admin"`
	IsSystemManager bool              `json:"is_system_manager"`
	Permissions     permission.Matrix `json:"permissions"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type MemberPage struct {
	Members    []Member   `json:"members"`
	Pagination Pagination `json:"pagination"`
}

// MemberFilter narrows a member listing.
type MemberFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// Repository is the persistence contract of the organization module.
// Lookups report absence as nil without an error.
type Repository interface {
	ListMembershipsForUser(ctx context.Context, userID int64) ([]orgDatamodel.OrganizationMember, error)
	CreateOrganization(ctx context.Context, org *orgDatamodel.Organization, roles []*orgDatamodel.OrgRole, owner *orgDatamodel.OrganizationMember) error
	GetOrganization(ctx context.Context, organizationID string) (*orgDatamodel.Organization, error)
	UpdateOrganization(ctx context.Context, organizationID string, updates map[string]interface{}) error

	ListRoles(ctx context.Context, organizationID string) ([]orgDatamodel.OrgRole, error)
	GetRole(ctx context.Context, organizationID, roleID string) (*orgDatamodel.OrgRole, error)
	FindRoleByName(ctx context.Context, organizationID, name string) (*orgDatamodel.OrgRole, error)
	CreateRole(ctx context.Context, role *orgDatamodel.OrgRole) error
	UpdateRole(ctx context.Context, roleID string, updates map[string]interface{}) error
	// DeleteRole detaches members from the role and soft-deletes it atomically.
	DeleteRole(ctx context.Context, organizationID, roleID string) error

	ListMembers(ctx context.Context, organizationID string, filter MemberFilter) ([]orgDatamodel.OrganizationMember, int64, error)
	GetMember(ctx context.Context, organizationID, memberID string) (*orgDatamodel.OrganizationMember, error)
	FindMemberByUser(ctx context.Context, organizationID string, userID int64) (*orgDatamodel.OrganizationMember, error)
	CreateMember(ctx context.Context, member *orgDatamodel.OrganizationMember) error
	UpdateMember(ctx context.Context, memberID string, updates map[string]interface{}) error

	GetUsers(ctx context.Context, userIDs []int64) (map[int64]userDatamodel.User, error)
	FindUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
}

func roleFromDataModel(r orgDatamodel.OrgRole) Role {
	return Role{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Permissions:    r.Permissions.Matrix(),
		IsSystem:       r.IsSystem,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func memberFromDataModel(m orgDatamodel.OrganizationMember, u *userDatamodel.User) Member {
	out := Member{
		ID:            m.ID,
		UserID:        m.UserID,
		Status:        m.Status,
		IsOrgAdmin:    m.IsOrgAdmin,
		InvitedAt:     m.InvitedAt,
		DeactivatedAt: m.DeactivatedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.OrgRole != nil {
		out.Role = &RoleRef{ID: m.OrgRole.ID, Name: m.OrgRole.Name}
	}
	if u != nil {
		out.Email = u.Email
		out.Name = displayName(u)
	}
	return out
}

func displayName(u *userDatamodel.User) string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// snapshot flattens a row into the map shape stored in audit logs.
func snapshot(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
