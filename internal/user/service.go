package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/permission"
)

// PermissionResolver computes a user's effective matrix.
type PermissionResolver interface {
	Resolve(ctx context.Context, user *auth.User, organizationID string) (*access.Membership, permission.Matrix, error)
}

type Service struct {
	repo     Repository
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// Me describes the authenticated user with the system-level matrix and the
// organization requests default to.
func (s *Service) Me(ctx context.Context, u *auth.User) (*Me, error) {
	profile, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if profile == nil {
		return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	}

	memberships, err := s.repo.ListMemberships(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user memberships: %w", err)
	}
	if memberships == nil {
		memberships = []Membership{}
	}

	me := &Me{
		Profile:         *profile,
		Roles:           make([]RoleSummary, 0, len(u.Roles)),
		IsSystemManager: access.IsManager(u),
		Permissions:     access.SystemMatrix(u),
		Organizations:   memberships,
	}
	for _, r := range u.Roles {
		me.Roles = append(me.Roles, RoleSummary{ID: r.ID, Name: r.Name})
	}

	candidates := make([]access.Membership, 0, len(memberships))
	for _, m := range memberships {
		candidates = append(candidates, access.Membership{
			ID:             m.ID,
			OrganizationID: m.OrganizationID,
			UserID:         u.ID,
			Status:         m.Status,
			IsOrgAdmin:     m.IsOrgAdmin,
			CreatedAt:      m.CreatedAt,
		})
	}
	if def := access.PickDefaultMembership(candidates); def != nil {
		me.DefaultOrganizationID = &def.OrganizationID
	}
	return me, nil
}

// Permissions returns the effective matrix inside organizationID, or inside
// the default organization when it is empty.
func (s *Service) Permissions(ctx context.Context, u *auth.User, organizationID string) (*Permissions, error) {
	membership, matrix, err := s.resolver.Resolve(ctx, u, organizationID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve permissions", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("Failed to resolve permissions", err)
	}

	out := &Permissions{Permissions: matrix}
	if membership != nil {
		out.OrganizationID = &membership.OrganizationID
		out.IsOrgAdmin = membership.IsOrgAdmin
	}
	return out, nil
}
