package access

import (
	"context"
	"time"

	"github.com/frahmantamala/planning-admin/internal/permission"
)

// Organization is the slice of an organization row the gate needs.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SetupStatus string `json:"setup_status"`
}

// OrgRole is an organization-scoped role with its raw permission payload.
type OrgRole struct {
	ID             string             `json:"id"`
	OrganizationID string             `json:"organization_id"`
	Name           string             `json:"name"`
	Permissions    permission.Payload `json:"permissions"`
	IsSystem       bool               `json:"is_system"`
	IsActive       bool               `json:"is_active"`
}

// Membership links a user to an organization.
type Membership struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	IsOrgAdmin     bool      `json:"is_org_admin"`
	OrgRole        *OrgRole  `json:"org_role,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the read side consumed by permission resolution. Absent rows
// are reported as nil without an error.
type Store interface {
	FindOrganizationByID(ctx context.Context, organizationID string) (*Organization, error)
	// FindActiveMembership skips inactive and deactivated rows and loads the org role.
	FindActiveMembership(ctx context.Context, organizationID string, userID int64) (*Membership, error)
	// ListActiveMemberships returns every usable membership of the user,
	// ordered by is_org_admin DESC, created_at ASC.
	ListActiveMemberships(ctx context.Context, userID int64) ([]Membership, error)
}
