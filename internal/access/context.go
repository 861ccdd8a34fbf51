package access

import (
	"context"

	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/pkg/logger"
)

// OrgContext is the organization scope resolved for one request.
type OrgContext struct {
	Organization   *Organization
	OrganizationID string
	Membership     *Membership
	OrgRole        *OrgRole
	Matrix         permission.Matrix
}

type ctxKey string

const orgContextKey ctxKey = "orgContext"

// ContextWithOrg attaches oc and tags the request logger with its
// organization id.
func ContextWithOrg(ctx context.Context, oc *OrgContext) context.Context {
	if oc != nil && oc.OrganizationID != "" {
		ctx = logger.With(ctx, "organization_id", oc.OrganizationID)
	}
	return context.WithValue(ctx, orgContextKey, oc)
}

// OrgFromContext returns the organization context attached by the gate.
func OrgFromContext(ctx context.Context) (*OrgContext, bool) {
	oc, ok := ctx.Value(orgContextKey).(*OrgContext)
	return oc, ok && oc != nil
}
