package organization

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/audit"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListForUser(ctx context.Context, userID int64) ([]Summary, error)
	Create(ctx context.Context, actor *auth.User, dto CreateOrganizationDTO) (*Organization, error)
	GetProfile(ctx context.Context, organizationID string) (*Organization, error)
	UpdateProfile(ctx context.Context, organizationID string, actorID int64, dto UpdateProfileDTO) (*Organization, error)
	GetSetupStatus(ctx context.Context, organizationID string) (*SetupStatus, error)
	UpdateSetupStatus(ctx context.Context, organizationID string, actorID int64, dto UpdateSetupStatusDTO) (*SetupStatus, error)
	DescribePermissions(user *auth.User, oc *access.OrgContext) MyPermissions
	ListRoles(ctx context.Context, organizationID string) ([]Role, error)
	CreateRole(ctx context.Context, organizationID string, actorID int64, dto CreateOrgRoleDTO) (*Role, error)
	UpdateRole(ctx context.Context, organizationID, roleID string, actorID int64, dto UpdateOrgRoleDTO) (*Role, error)
	UpdatePermissionsMatrix(ctx context.Context, organizationID string, actorID int64, dto PermissionsMatrixDTO) ([]Role, error)
	DeleteRole(ctx context.Context, organizationID, roleID string, actorID int64) error
	ListMembers(ctx context.Context, organizationID string, query ListMembersQuery) (*MemberPage, error)
	GetMember(ctx context.Context, organizationID, memberID string) (*Member, error)
	AddMember(ctx context.Context, organizationID string, actorID int64, dto AddMemberDTO) (*Member, error)
	ChangeMemberRole(ctx context.Context, organizationID, memberID string, actorID int64, dto ChangeRoleDTO) (*Member, error)
	DeactivateMember(ctx context.Context, organizationID, memberID string, actorID int64) (*Member, error)
	AuditLogs(ctx context.Context, organizationID string, page, limit int) ([]audit.Entry, Pagination, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// scope returns the caller and the organization resolved by the gate.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (*auth.User, *access.OrgContext, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return nil, nil, false
	}
	oc, ok := access.OrgFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrOrganizationRequired)
		return nil, nil, false
	}
	return user, oc, true
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return
	}

	orgs, err := h.Service.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, orgs, "")
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return
	}

	var dto CreateOrganizationDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	org, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, org, "Organization created successfully")
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	org, err := h.Service.GetProfile(r.Context(), oc.OrganizationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, org, "")
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto UpdateProfileDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	org, err := h.Service.UpdateProfile(r.Context(), oc.OrganizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, org, "Organization profile updated successfully")
}

func (h *Handler) GetSetupStatus(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	status, err := h.Service.GetSetupStatus(r.Context(), oc.OrganizationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, status, "")
}

func (h *Handler) UpdateSetupStatus(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto UpdateSetupStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	status, err := h.Service.UpdateSetupStatus(r.Context(), oc.OrganizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, status, "Setup status updated")
}

func (h *Handler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	h.WriteSuccess(w, http.StatusOK, h.Service.DescribePermissions(user, oc), "")
}

func (h *Handler) ListOrgRoles(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	roles, err := h.Service.ListRoles(r.Context(), oc.OrganizationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, roles, "")
}

func (h *Handler) CreateOrgRole(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto CreateOrgRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	role, err := h.Service.CreateRole(r.Context(), oc.OrganizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, role, "Organization role created successfully")
}

func (h *Handler) UpdateOrgRole(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto UpdateOrgRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	role, err := h.Service.UpdateRole(r.Context(), oc.OrganizationID, chi.URLParam(r, "orgRoleID"), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, role, "Organization role updated successfully")
}

func (h *Handler) UpdatePermissionsMatrix(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto PermissionsMatrixDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	roles, err := h.Service.UpdatePermissionsMatrix(r.Context(), oc.OrganizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, roles, "Permissions matrix updated successfully")
}

func (h *Handler) DeleteOrgRole(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteRole(r.Context(), oc.OrganizationID, chi.URLParam(r, "orgRoleID"), user.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Organization role deleted successfully")
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := ListMembersQuery{
		Page:   atoi(q.Get("page")),
		Limit:  atoi(q.Get("limit")),
		Status: q.Get("status"),
		Search: q.Get("search"),
	}

	page, err := h.Service.ListMembers(r.Context(), oc.OrganizationID, query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page, "")
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	member, err := h.Service.GetMember(r.Context(), oc.OrganizationID, chi.URLParam(r, "memberID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, member, "")
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto AddMemberDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	member, err := h.Service.AddMember(r.Context(), oc.OrganizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, member, "Member added successfully")
}

func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto ChangeRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	member, err := h.Service.ChangeMemberRole(r.Context(), oc.OrganizationID, chi.URLParam(r, "memberID"), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, member, "Member role updated successfully")
}

func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	user, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	member, err := h.Service.DeactivateMember(r.Context(), oc.OrganizationID, chi.URLParam(r, "memberID"), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, member, "Member deactivated successfully")
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	_, oc, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	rows, pagination, err := h.Service.AuditLogs(r.Context(), oc.OrganizationID, atoi(q.Get("page")), atoi(q.Get("limit")))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"logs":       rows,
		"pagination": pagination,
	}, "")
}

// Routes mounts the organization API. The gate guards every route below
// /{organizationID}; writes additionally need organization management edit.
func (h *Handler) Routes(r chi.Router, gate *access.Gate) {
	r.Get("/", h.ListOrganizations)
	r.With(gate.RequireOrganizationManager()).Post("/", h.CreateOrganization)

	r.Route("/{"+access.OrganizationIDParam+"}", func(r chi.Router) {
		r.Use(gate.ResolveOrganizationContext(), gate.RequireOrganizationMember())
		manager := gate.RequireOrganizationManager()

		r.Get("/profile", h.GetProfile)
		r.With(manager).Put("/profile", h.UpdateProfile)
		r.Get("/setup-status", h.GetSetupStatus)
		r.With(manager).Put("/setup-status", h.UpdateSetupStatus)

		r.Get("/permissions/me", h.GetMyPermissions)
		r.Get("/org-roles", h.ListOrgRoles)
		r.With(manager).Post("/org-roles", h.CreateOrgRole)
		r.With(manager).Put("/org-roles/permissions-matrix", h.UpdatePermissionsMatrix)
		r.With(manager).Put("/org-roles/{orgRoleID}", h.UpdateOrgRole)
		r.With(manager).Delete("/org-roles/{orgRoleID}", h.DeleteOrgRole)

		r.Get("/members", h.ListMembers)
		r.With(manager).Post("/members", h.AddMember)
		r.Get("/members/{memberID}", h.GetMember)
		r.With(manager).Post("/members/{memberID}/change-role", h.ChangeMemberRole)
		r.With(manager).Post("/members/{memberID}/deactivate", h.DeactivateMember)

		r.With(manager).Get("/audit-logs", h.ListAuditLogs)
	})
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
