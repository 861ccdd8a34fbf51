package access

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/go-chi/chi"
)

// Request locations an organization id may be read from.
const (
	OrganizationIDParam  = "organizationID"
	OrganizationIDHeader = "X-Organization-ID"
	OrganizationIDQuery  = "organizationId"
)

const (
	guardOrganizationContext = "organization_context"
	guardOrganizationMember  = "organization_member"
	guardOrganizationManager = "organization_manager"
	guardToolPermission      = "tool_permission"
)

const maxPeekBody = 1 << 20

// Gate holds the request guards that decide allow or deny.
type Gate struct {
	store    Store
	resolver *RoleResolver
	base     *transport.BaseHandler
	metrics  *Metrics
}

func NewGate(store Store, lg *slog.Logger, metrics *Metrics) *Gate {
	return &Gate{
		store:    store,
		resolver: NewRoleResolver(store),
		base:     transport.NewBaseHandler(lg),
		metrics:  metrics,
	}
}

// Resolver exposes the role resolver the gate uses.
func (g *Gate) Resolver() *RoleResolver {
	return g.resolver
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, guard, outcome string, appErr *internal.AppError) {
	g.metrics.record(guard, outcome)
	attrs := []any{"guard", guard, "path", r.URL.Path, "reason", appErr.Message}
	if userID := internal.UserIDFromContext(r.Context()); userID != 0 {
		attrs = append(attrs, "user_id", userID)
	}
	if appErr.Required != nil {
		attrs = append(attrs, "required_tool", appErr.Required.Tool, "required_action", appErr.Required.Action)
	}
	if outcome != OutcomeError {
		logger.FromOr(r.Context(), g.base.Logger).WarnContext(r.Context(), "access denied", attrs...)
	}
	g.base.WriteAppError(w, appErr)
}

func (g *Gate) fail(w http.ResponseWriter, r *http.Request, guard string, err error) {
	logger.FromOr(r.Context(), g.base.Logger).ErrorContext(r.Context(), "authorization check failed", "guard", guard, "error", err)
	g.deny(w, r, guard, OutcomeError, internal.NewInternalError("Failed to resolve permissions", err))
}

// ResolveOrganizationContext loads the organization named by the path or
// X-Organization-ID header together with the caller's membership, and
// attaches both with the merged permission matrix.
func (g *Gate) ResolveOrganizationContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				g.deny(w, r, guardOrganizationContext, OutcomeUnauthenticated, internal.ErrAuthenticationRequired)
				return
			}

			organizationID := chi.URLParam(r, OrganizationIDParam)
			if organizationID == "" {
				organizationID = strings.TrimSpace(r.Header.Get(OrganizationIDHeader))
			}
			if organizationID == "" {
				g.deny(w, r, guardOrganizationContext, OutcomeBadRequest, internal.ErrOrganizationRequired)
				return
			}

			org, err := g.store.FindOrganizationByID(r.Context(), organizationID)
			if err != nil {
				g.fail(w, r, guardOrganizationContext, err)
				return
			}
			if org == nil {
				g.deny(w, r, guardOrganizationContext, OutcomeNotFound, internal.ErrOrganizationNotFound)
				return
			}

			membership, err := g.resolver.ResolveMembership(r.Context(), org.ID, user.ID)
			if err != nil {
				g.fail(w, r, guardOrganizationContext, err)
				return
			}
			if membership == nil && !IsManager(user) {
				g.deny(w, r, guardOrganizationContext, OutcomeForbidden, internal.ErrOrganizationAccess)
				return
			}

			oc := &OrgContext{
				Organization:   org,
				OrganizationID: org.ID,
				Membership:     membership,
				Matrix:         EffectiveMatrix(user, membership),
			}
			if membership != nil {
				oc.OrgRole = membership.OrgRole
			}

			g.metrics.record(guardOrganizationContext, OutcomeAllowed)
			next.ServeHTTP(w, r.WithContext(ContextWithOrg(r.Context(), oc)))
		})
	}
}

// RequireOrganizationMember passes members of the resolved organization and
// system managers.
func (g *Gate) RequireOrganizationMember() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				g.deny(w, r, guardOrganizationMember, OutcomeUnauthenticated, internal.ErrAuthenticationRequired)
				return
			}

			oc, hasOrg := OrgFromContext(r.Context())
			if (hasOrg && oc.Membership != nil) || IsManager(user) {
				g.metrics.record(guardOrganizationMember, OutcomeAllowed)
				next.ServeHTTP(w, r)
				return
			}

			g.deny(w, r, guardOrganizationMember, OutcomeForbidden, internal.ErrMembershipRequired)
		})
	}
}

// RequireOrganizationManager passes system managers and callers holding
// organization_management edit on the resolved matrix.
func (g *Gate) RequireOrganizationManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				g.deny(w, r, guardOrganizationManager, OutcomeUnauthenticated, internal.ErrAuthenticationRequired)
				return
			}

			matrix := permission.Empty()
			if oc, ok := OrgFromContext(r.Context()); ok {
				matrix = oc.Matrix
			}

			if IsManager(user) || permission.HasPermission(matrix, permission.ToolOrganizationManagement, permission.ActionEdit) {
				g.metrics.record(guardOrganizationManager, OutcomeAllowed)
				next.ServeHTTP(w, r)
				return
			}

			g.deny(w, r, guardOrganizationManager, OutcomeForbidden,
				internal.ErrManagerRequired.WithRequired(string(permission.ToolOrganizationManagement), string(permission.ActionEdit)))
		})
	}
}

// RequireToolPermission passes callers whose effective matrix grants action
// on tool. The organization scope is taken from an already resolved context,
// else from an organization id on the request, else from the caller's
// default membership.
func (g *Gate) RequireToolPermission(tool permission.Tool, action permission.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				g.deny(w, r, guardToolPermission, OutcomeUnauthenticated, internal.ErrAuthenticationRequired)
				return
			}

			oc, hasOrg := OrgFromContext(r.Context())
			var (
				membership  *Membership
				matrix      permission.Matrix
				requestedID string
				err         error
			)
			if hasOrg && oc.Membership != nil {
				membership = oc.Membership
				matrix = EffectiveMatrix(user, membership)
			} else {
				requestedID = organizationIDFromRequest(r)
				membership, matrix, err = g.resolver.Resolve(r.Context(), user, requestedID)
				if err != nil {
					g.fail(w, r, guardToolPermission, err)
					return
				}
			}

			if !permission.HasPermission(matrix, tool, action) {
				g.deny(w, r, guardToolPermission, OutcomeForbidden,
					internal.ErrInsufficientAccess.WithRequired(string(tool), string(action)))
				return
			}

			resolved := &OrgContext{Membership: membership, Matrix: matrix}
			if hasOrg {
				resolved.Organization = oc.Organization
				resolved.OrganizationID = oc.OrganizationID
			}
			switch {
			case membership != nil:
				resolved.OrganizationID = membership.OrganizationID
				resolved.OrgRole = membership.OrgRole
			case requestedID != "":
				// A named organization scopes the request even without membership.
				resolved.OrganizationID = requestedID
			}

			g.metrics.record(guardToolPermission, OutcomeAllowed)
			next.ServeHTTP(w, r.WithContext(ContextWithOrg(r.Context(), resolved)))
		})
	}
}

// organizationIDFromRequest looks for an organization id in the path,
// header, query string and JSON body, in that order. A consumed body is
// restored for the next handler.
func organizationIDFromRequest(r *http.Request) string {
	if id := chi.URLParam(r, OrganizationIDParam); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(OrganizationIDHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get(OrganizationIDQuery)); id != "" {
		return id
	}
	return organizationIDFromBody(r)
}

func organizationIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "json") {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		OrganizationID any `json:"organizationId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if id, ok := body.OrganizationID.(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}
