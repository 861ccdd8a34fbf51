package organization

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/audit"
	"github.com/frahmantamala/planning-admin/internal/auth"
	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	"github.com/frahmantamala/planning-admin/internal/core/events"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/google/uuid"
)

// AuditReader lists recorded organization changes.
type AuditReader interface {
	List(ctx context.Context, organizationID string, limit, offset int) ([]audit.Entry, int64, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	audit     AuditReader
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, auditReader AuditReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		audit:     auditReader,
		logger:    logger,
	}
}

// DefaultRoles are seeded into every new organization.
func DefaultRoles() []*orgDatamodel.OrgRole {
	viewEdit := permission.Entry{View: true, Edit: true}
	viewOnly := permission.Entry{View: true}

	cityOfficial := permission.Empty().
		With(permission.ToolMappingZoning, viewEdit).
		With(permission.ToolLegislation, viewEdit).
		With(permission.ToolOrganizationManagement, viewEdit)
	planner := permission.Empty().
		With(permission.ToolMappingZoning, viewEdit).
		With(permission.ToolLegislation, viewEdit).
		With(permission.ToolOrganizationManagement, viewOnly)
	reviewer := permission.Empty().
		With(permission.ToolMappingZoning, viewOnly).
		With(permission.ToolLegislation, viewOnly).
		With(permission.ToolOrganizationManagement, viewOnly)

	return []*orgDatamodel.OrgRole{
		{Name: "Admin", Permissions: permission.Wildcard(), IsSystem: true, IsActive: true},
		{Name: "City Official", Permissions: permission.MatrixPayload(cityOfficial), IsSystem: true, IsActive: true},
		{Name: "Planner", Permissions: permission.MatrixPayload(planner), IsSystem: true, IsActive: true},
		{Name: "Reviewer", Permissions: permission.MatrixPayload(reviewer), IsSystem: true, IsActive: true},
	}
}

// ListForUser returns every organization the user belongs to, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Summary, error) {
	memberships, err := s.repo.ListMembershipsForUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list organizations", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("Failed to fetch organizations", err)
	}

	out := make([]Summary, 0, len(memberships))
	for _, m := range memberships {
		if m.Organization == nil {
			continue
		}
		out = append(out, Summary{
			ID:           m.Organization.ID,
			Name:         m.Organization.Name,
			SetupStatus:  m.Organization.SetupStatus,
			MemberStatus: m.Status,
			IsOrgAdmin:   m.IsOrgAdmin,
			RoleID:       m.OrgRoleID,
			CreatedAt:    m.Organization.CreatedAt,
			UpdatedAt:    m.Organization.UpdatedAt,
		})
	}
	return out, nil
}

// Create creates an organization, seeds its default roles and makes the
// creator an active org admin.
func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.PrimaryContactEmail == "" {
		dto.PrimaryContactEmail = actor.Email
	}

	actorID := actor.ID
	now := time.Now()
	org := &orgDatamodel.Organization{
		ID:                  uuid.NewString(),
		Name:                dto.Name,
		StreetAddress1:      dto.StreetAddress1,
		StreetAddress2:      dto.StreetAddress2,
		City:                dto.City,
		StateRegion:         dto.StateRegion,
		PostalZip:           dto.PostalZip,
		Country:             dto.Country,
		Website:             dto.Website,
		PrimaryContactEmail: dto.PrimaryContactEmail,
		LogoURL:             dto.LogoURL,
		SetupStatus:         orgDatamodel.SetupStatusNotStarted,
		CreatedBy:           &actorID,
		UpdatedBy:           &actorID,
	}
	roles := DefaultRoles()
	for _, r := range roles {
		r.OrganizationID = org.ID
		r.CreatedBy = &actorID
	}
	owner := &orgDatamodel.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         actorID,
		Status:         orgDatamodel.MemberStatusActive,
		IsOrgAdmin:     true,
		InvitedBy:      &actorID,
		InvitedAt:      &now,
	}

	if err := s.repo.CreateOrganization(ctx, org, roles, owner); err != nil {
		s.logger.ErrorContext(ctx, "failed to create organization", "error", err, "user_id", actorID)
		return nil, internal.NewInternalError("Failed to create organization", err)
	}

	s.logger.InfoContext(ctx, "organization created", "organization_id", org.ID, "user_id", actorID)
	s.publish(ctx, events.NewOrganizationEvent(org.ID, actorID, events.EntityOrganization, org.ID, "created",
		fmt.Sprintf("Organization %s created", org.Name)).WithChanges(nil, snapshot(org)))
	return org, nil
}

func (s *Service) GetProfile(ctx context.Context, organizationID string) (*Organization, error) {
	org, err := s.repo.GetOrganization(ctx, organizationID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load organization", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to fetch organization profile", err)
	}
	if org == nil {
		return nil, internal.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *Service) UpdateProfile(ctx context.Context, organizationID string, actorID int64, dto UpdateProfileDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	previous, err := s.GetProfile(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	updates := dto.Updates()
	if len(updates) == 0 {
		return previous, nil
	}
	updates["updated_by"] = actorID
	if err := s.repo.UpdateOrganization(ctx, organizationID, updates); err != nil {
		s.logger.ErrorContext(ctx, "failed to update organization", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to update organization profile", err)
	}

	updated, err := s.GetProfile(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrganization, organizationID, "updated",
		fmt.Sprintf("Organization %s profile updated", updated.Name)).WithChanges(snapshot(previous), snapshot(updated)))
	return updated, nil
}

func (s *Service) GetSetupStatus(ctx context.Context, organizationID string) (*SetupStatus, error) {
	org, err := s.GetProfile(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return setupStatusOf(org), nil
}

// UpdateSetupStatus stores the normalized status and stamps completion or
// skip times.
func (s *Service) UpdateSetupStatus(ctx context.Context, organizationID string, actorID int64, dto UpdateSetupStatusDTO) (*SetupStatus, error) {
	previous, err := s.GetProfile(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	status := dto.Normalized()
	updates := map[string]interface{}{
		"setup_status": status,
		"updated_by":   actorID,
	}
	now := time.Now()
	switch status {
	case orgDatamodel.SetupStatusCompleted:
		updates["setup_completed_at"] = now
	case orgDatamodel.SetupStatusSkipped:
		updates["setup_skipped_at"] = now
	}

	if err := s.repo.UpdateOrganization(ctx, organizationID, updates); err != nil {
		s.logger.ErrorContext(ctx, "failed to update setup status", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to update setup status", err)
	}

	updated, err := s.GetProfile(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrganization, organizationID, "setup_status_changed",
		fmt.Sprintf("Setup status changed from %s to %s", previous.SetupStatus, status)).
		WithChanges(map[string]interface{}{"setup_status": previous.SetupStatus}, map[string]interface{}{"setup_status": status}))
	return setupStatusOf(updated), nil
}

// DescribePermissions reports the caller's effective permissions in the
// resolved organization.
func (s *Service) DescribePermissions(user *auth.User, oc *access.OrgContext) MyPermissions {
	out := MyPermissions{
		OrganizationID:  oc.OrganizationID,
		IsSystemManager: access.IsManager(user),
		Permissions:     access.EffectiveMatrix(user, oc.Membership),
	}
	if oc.Membership != nil {
		out.IsOrgAdmin = oc.Membership.IsOrgAdmin
		if role := oc.Membership.OrgRole; role != nil {
			out.Role = &RoleRef{ID: role.ID, Name: role.Name}
		}
	}
	return out
}

func (s *Service) ListRoles(ctx context.Context, organizationID string) ([]Role, error) {
	rows, err := s.repo.ListRoles(ctx, organizationID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list org roles", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to fetch organization roles", err)
	}
	out := make([]Role, 0, len(rows))
	for _, r := range rows {
		out = append(out, roleFromDataModel(r))
	}
	return out, nil
}

// CreateRole stores the normalized matrix of the submitted permissions.
func (s *Service) CreateRole(ctx context.Context, organizationID string, actorID int64, dto CreateOrgRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindRoleByName(ctx, organizationID, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("Failed to create organization role", err)
	}
	if existing != nil {
		return nil, internal.ErrOrgRoleExists
	}

	row := &orgDatamodel.OrgRole{
		OrganizationID: organizationID,
		Name:           dto.Name,
		Permissions:    permission.MatrixPayload(dto.Permissions.Matrix()),
		IsActive:       true,
		CreatedBy:      &actorID,
		UpdatedBy:      &actorID,
	}
	if err := s.repo.CreateRole(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create org role", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to create organization role", err)
	}
	if dto.IsActive != nil && !*dto.IsActive {
		if err := s.repo.UpdateRole(ctx, row.ID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, internal.NewInternalError("Failed to create organization role", err)
		}
		row.IsActive = false
	}

	role := roleFromDataModel(*row)
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrgRole, row.ID, "created",
		fmt.Sprintf("Organization role %s created", row.Name)).WithChanges(nil, snapshot(role)))
	return &role, nil
}

func (s *Service) UpdateRole(ctx context.Context, organizationID, roleID string, actorID int64, dto UpdateOrgRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	current, err := s.getRole(ctx, organizationID, roleID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_by": actorID}
	if dto.Name != nil && !strings.EqualFold(*dto.Name, current.Name) {
		clash, err := s.repo.FindRoleByName(ctx, organizationID, *dto.Name)
		if err != nil {
			return nil, internal.NewInternalError("Failed to update organization role", err)
		}
		if clash != nil && clash.ID != current.ID {
			return nil, internal.ErrOrgRoleExists
		}
	}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Permissions != nil {
		updates["permissions"] = permission.MatrixPayload(dto.Permissions.Matrix())
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}

	if err := s.repo.UpdateRole(ctx, current.ID, updates); err != nil {
		s.logger.ErrorContext(ctx, "failed to update org role", "error", err, "org_role_id", roleID)
		return nil, internal.NewInternalError("Failed to update organization role", err)
	}
	updated, err := s.getRole(ctx, organizationID, roleID)
	if err != nil {
		return nil, err
	}

	previous, next := roleFromDataModel(*current), roleFromDataModel(*updated)
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrgRole, updated.ID, "updated",
		fmt.Sprintf("Organization role %s updated", updated.Name)).WithChanges(snapshot(previous), snapshot(next)))
	return &next, nil
}

// UpdatePermissionsMatrix replaces the permissions of several roles and
// returns the roles it changed. Entries naming no role of the organization
// are skipped.
func (s *Service) UpdatePermissionsMatrix(ctx context.Context, organizationID string, actorID int64, dto PermissionsMatrixDTO) ([]Role, error) {
	out := make([]Role, 0, len(dto.Roles))
	for _, entry := range dto.Roles {
		if entry.ID == "" {
			continue
		}
		current, err := s.repo.GetRole(ctx, organizationID, entry.ID)
		if err != nil {
			return nil, internal.NewInternalError("Failed to update permissions matrix", err)
		}
		if current == nil {
			continue
		}

		payload := permission.MatrixPayload(entry.Permissions.Matrix())
		if err := s.repo.UpdateRole(ctx, current.ID, map[string]interface{}{
			"permissions": payload,
			"updated_by":  actorID,
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to update permissions matrix", "error", err, "org_role_id", current.ID)
			return nil, internal.NewInternalError("Failed to update permissions matrix", err)
		}

		previous := roleFromDataModel(*current)
		next := previous
		next.Permissions = payload.Matrix()
		s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrgRole, current.ID, "permissions_matrix_updated",
			fmt.Sprintf("Permissions matrix updated for role %s", current.Name)).WithChanges(snapshot(previous), snapshot(next)))
		out = append(out, next)
	}
	return out, nil
}

func (s *Service) DeleteRole(ctx context.Context, organizationID, roleID string, actorID int64) error {
	role, err := s.getRole(ctx, organizationID, roleID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, organizationID, role.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete org role", "error", err, "org_role_id", roleID)
		return internal.NewInternalError("Failed to delete organization role", err)
	}

	s.logger.InfoContext(ctx, "org role deleted", "organization_id", organizationID, "org_role_id", role.ID)
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityOrgRole, role.ID, "deleted",
		fmt.Sprintf("Organization role %s deleted", role.Name)).WithChanges(snapshot(roleFromDataModel(*role)), nil))
	return nil
}

func (s *Service) ListMembers(ctx context.Context, organizationID string, query ListMembersQuery) (*MemberPage, error) {
	query.Normalize()
	rows, total, err := s.repo.ListMembers(ctx, organizationID, MemberFilter{
		Status: query.Status,
		Search: query.Search,
		Limit:  query.Limit,
		Offset: (query.Page - 1) * query.Limit,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list members", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to fetch members", err)
	}

	members, err := s.withUsers(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &MemberPage{
		Members: members,
		Pagination: Pagination{
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
		},
	}, nil
}

func (s *Service) GetMember(ctx context.Context, organizationID, memberID string) (*Member, error) {
	row, err := s.getMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}
	members, err := s.withUsers(ctx, []orgDatamodel.OrganizationMember{*row})
	if err != nil {
		return nil, err
	}
	return &members[0], nil
}

// AddMember adds a user to the organization. A deactivated membership of
// the same user is reactivated instead.
func (s *Service) AddMember(ctx context.Context, organizationID string, actorID int64, dto AddMemberDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	userID := dto.UserID
	if userID == 0 {
		user, err := s.repo.FindUserByEmail(ctx, dto.Email)
		if err != nil {
			return nil, internal.NewInternalError("Failed to add member", err)
		}
		if user == nil {
			return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
		}
		userID = user.ID
	}

	var roleID *string
	if dto.Role != "" {
		role, err := s.findRole(ctx, organizationID, dto.Role)
		if err != nil {
			return nil, err
		}
		roleID = &role.ID
	}

	existing, err := s.repo.FindMemberByUser(ctx, organizationID, userID)
	if err != nil {
		return nil, internal.NewInternalError("Failed to add member", err)
	}

	now := time.Now()
	var memberID string
	switch {
	case existing == nil:
		row := &orgDatamodel.OrganizationMember{
			OrganizationID: organizationID,
			UserID:         userID,
			OrgRoleID:      roleID,
			Status:         dto.Status,
			IsOrgAdmin:     dto.IsOrgAdmin,
			InvitedBy:      &actorID,
			InvitedAt:      &now,
		}
		if err := s.repo.CreateMember(ctx, row); err != nil {
			s.logger.ErrorContext(ctx, "failed to add member", "error", err, "organization_id", organizationID, "user_id", userID)
			return nil, internal.NewInternalError("Failed to add member", err)
		}
		memberID = row.ID
	case existing.Status == orgDatamodel.MemberStatusDeactivated || existing.Status == orgDatamodel.MemberStatusInactive:
		if err := s.repo.UpdateMember(ctx, existing.ID, map[string]interface{}{
			"status":         dto.Status,
			"org_role_id":    roleID,
			"is_org_admin":   dto.IsOrgAdmin,
			"invited_by":     actorID,
			"invited_at":     now,
			"deactivated_at": nil,
		}); err != nil {
			return nil, internal.NewInternalError("Failed to add member", err)
		}
		memberID = existing.ID
	default:
		return nil, internal.ErrMemberExists
	}

	member, err := s.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityMember, member.ID, "created",
		fmt.Sprintf("Member %s added", member.Name)).WithChanges(nil, snapshot(member)))
	return member, nil
}

// ChangeMemberRole assigns the role named by id or name.
func (s *Service) ChangeMemberRole(ctx context.Context, organizationID, memberID string, actorID int64, dto ChangeRoleDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	previous, err := s.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}
	role, err := s.findRole(ctx, organizationID, dto.Role)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMember(ctx, previous.ID, map[string]interface{}{"org_role_id": role.ID}); err != nil {
		s.logger.ErrorContext(ctx, "failed to change member role", "error", err, "member_id", memberID)
		return nil, internal.NewInternalError("Failed to change role", err)
	}
	updated, err := s.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityMember, updated.ID, "changed_role",
		fmt.Sprintf("Member %s role changed to %s", updated.Name, role.Name)).WithChanges(snapshot(previous), snapshot(updated)))
	return updated, nil
}

func (s *Service) DeactivateMember(ctx context.Context, organizationID, memberID string, actorID int64) (*Member, error) {
	previous, err := s.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMember(ctx, previous.ID, map[string]interface{}{
		"status":         orgDatamodel.MemberStatusDeactivated,
		"deactivated_at": time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to deactivate member", "error", err, "member_id", memberID)
		return nil, internal.NewInternalError("Failed to deactivate member", err)
	}
	updated, err := s.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrganizationEvent(organizationID, actorID, events.EntityMember, updated.ID, "deactivated",
		fmt.Sprintf("Member %s deactivated", updated.Name)).WithChanges(snapshot(previous), snapshot(updated)))
	return updated, nil
}

// AuditLogs pages through the organization's audit trail.
func (s *Service) AuditLogs(ctx context.Context, organizationID string, page, limit int) ([]audit.Entry, Pagination, error) {
	query := ListMembersQuery{Page: page, Limit: limit}
	query.Normalize()
	if s.audit == nil {
		return []audit.Entry{}, Pagination{Page: query.Page, Limit: query.Limit}, nil
	}

	rows, total, err := s.audit.List(ctx, organizationID, query.Limit, (query.Page-1)*query.Limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit logs", "error", err, "organization_id", organizationID)
		return nil, Pagination{}, internal.NewInternalError("Failed to fetch audit logs", err)
	}
	return rows, Pagination{
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *Service) getRole(ctx context.Context, organizationID, roleID string) (*orgDatamodel.OrgRole, error) {
	role, err := s.repo.GetRole(ctx, organizationID, roleID)
	if err != nil {
		return nil, internal.NewInternalError("Failed to fetch organization role", err)
	}
	if role == nil {
		return nil, internal.ErrOrgRoleNotFound
	}
	return role, nil
}

// findRole resolves a role by id, falling back to a case-insensitive name.
func (s *Service) findRole(ctx context.Context, organizationID, value string) (*orgDatamodel.OrgRole, error) {
	if _, err := uuid.Parse(value); err == nil {
		role, err := s.repo.GetRole(ctx, organizationID, value)
		if err != nil {
			return nil, internal.NewInternalError("Failed to fetch organization role", err)
		}
		if role != nil {
			return role, nil
		}
	}
	role, err := s.repo.FindRoleByName(ctx, organizationID, value)
	if err != nil {
		return nil, internal.NewInternalError("Failed to fetch organization role", err)
	}
	if role == nil {
		return nil, internal.ErrOrgRoleNotFound
	}
	return role, nil
}

func (s *Service) getMember(ctx context.Context, organizationID, memberID string) (*orgDatamodel.OrganizationMember, error) {
	row, err := s.repo.GetMember(ctx, organizationID, memberID)
	if err != nil {
		return nil, internal.NewInternalError("Failed to fetch member", err)
	}
	if row == nil {
		return nil, internal.ErrMemberNotFound
	}
	return row, nil
}

func (s *Service) withUsers(ctx context.Context, rows []orgDatamodel.OrganizationMember) ([]Member, error) {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := s.repo.GetUsers(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("Failed to fetch members", err)
	}

	out := make([]Member, 0, len(rows))
	for _, r := range rows {
		user, ok := users[r.UserID]
		if !ok {
			out = append(out, memberFromDataModel(r, nil))
			continue
		}
		out = append(out, memberFromDataModel(r, &user))
	}
	return out, nil
}

// publish hands the change to the audit pipeline. Failures never fail the
// request.
func (s *Service) publish(ctx context.Context, event *events.OrganizationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish organization event", "error", err, "action", event.Action)
	}
}

func setupStatusOf(org *Organization) *SetupStatus {
	return &SetupStatus{
		OrganizationID:   org.ID,
		SetupStatus:      org.SetupStatus,
		SetupCompletedAt: org.SetupCompletedAt,
		SetupSkippedAt:   org.SetupSkippedAt,
	}
}
