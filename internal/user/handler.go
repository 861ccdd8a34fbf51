package user

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Me(ctx context.Context, u *auth.User) (*Me, error)
	Permissions(ctx context.Context, u *auth.User, organizationID string) (*Permissions, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return
	}

	me, err := h.Service.Me(r.Context(), user)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "GetCurrentUser: service failed", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, me, "")
}

// GetMyPermissions handles GET /users/me/permissions
func (h *Handler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return
	}

	organizationID := strings.TrimSpace(r.URL.Query().Get(access.OrganizationIDQuery))
	if organizationID == "" {
		organizationID = strings.TrimSpace(r.Header.Get(access.OrganizationIDHeader))
	}

	perms, err := h.Service.Permissions(r.Context(), user, organizationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, perms, "")
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.GetCurrentUser)
	r.Get("/me/permissions", h.GetMyPermissions)
}
