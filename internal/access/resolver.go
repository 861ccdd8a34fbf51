package access

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/permission"
)

// System role names that bypass organization membership checks.
const (
	RoleAdmin        = "admin"
	RoleCityOfficial = "city_official"
)

// IsManager reports whether the user holds the admin or city_official
// system role, ignoring case.
func IsManager(user *auth.User) bool {
	if user == nil {
		return false
	}
	for _, role := range user.Roles {
		name := strings.ToLower(role.Name)
		if name == RoleAdmin || name == RoleCityOfficial {
			return true
		}
	}
	return false
}

// SystemMatrix derives the permissions granted by the user's system roles.
// Managers get everything regardless of what their roles carry.
func SystemMatrix(user *auth.User) permission.Matrix {
	if user == nil {
		return permission.Empty()
	}
	if IsManager(user) {
		return permission.Full()
	}

	payloads := make([]any, 0, len(user.Roles))
	for _, role := range user.Roles {
		payloads = append(payloads, role.Permissions)
	}
	return permission.Merge(payloads...)
}

// OrganizationMatrix derives the organization-scoped permissions of a
// membership. Org admins hold every permission inside their organization.
func OrganizationMatrix(m *Membership) permission.Matrix {
	if m == nil {
		return permission.Empty()
	}
	if m.IsOrgAdmin {
		return permission.Full()
	}
	if m.OrgRole == nil || !m.OrgRole.IsActive {
		return permission.Empty()
	}
	return m.OrgRole.Permissions.Matrix()
}

// EffectiveMatrix merges system and organization permissions.
func EffectiveMatrix(user *auth.User, m *Membership) permission.Matrix {
	return permission.Merge(SystemMatrix(user), OrganizationMatrix(m))
}

// PickDefaultMembership applies the default organization rule: prefer org
// admin memberships, then the oldest one. It returns nil for no memberships.
func PickDefaultMembership(memberships []Membership) *Membership {
	if len(memberships) == 0 {
		return nil
	}
	ordered := make([]Membership, len(memberships))
	copy(ordered, memberships)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsOrgAdmin != ordered[j].IsOrgAdmin {
			return ordered[i].IsOrgAdmin
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return &ordered[0]
}

// RoleResolver loads memberships and turns them into permission matrices.
type RoleResolver struct {
	store Store
}

func NewRoleResolver(store Store) *RoleResolver {
	return &RoleResolver{store: store}
}

// ResolveDefaultMembership returns the membership used when a request names
// no organization, or nil when the user has no usable membership.
func (r *RoleResolver) ResolveDefaultMembership(ctx context.Context, userID int64) (*Membership, error) {
	memberships, err := r.store.ListActiveMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return PickDefaultMembership(memberships), nil
}

// ResolveMembership returns the caller's active membership in an organization.
func (r *RoleResolver) ResolveMembership(ctx context.Context, organizationID string, userID int64) (*Membership, error) {
	m, err := r.store.FindActiveMembership(ctx, organizationID, userID)
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return m, nil
}

// Resolve computes the effective matrix of user within organizationID, or
// within the default membership when organizationID is empty.
func (r *RoleResolver) Resolve(ctx context.Context, user *auth.User, organizationID string) (*Membership, permission.Matrix, error) {
	var (
		m   *Membership
		err error
	)
	if organizationID != "" {
		m, err = r.ResolveMembership(ctx, organizationID, user.ID)
	} else {
		m, err = r.ResolveDefaultMembership(ctx, user.ID)
	}
	if err != nil {
		return nil, permission.Empty(), err
	}
	return m, EffectiveMatrix(user, m), nil
}
