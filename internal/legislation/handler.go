package legislation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, organizationID string, query ListQuery) (*Page, error)
	Get(ctx context.Context, organizationID, id string) (*Legislation, error)
	Create(ctx context.Context, organizationID string, userID int64, dto CreateLegislationDTO) (*Legislation, error)
	Update(ctx context.Context, organizationID, id string, userID int64, dto UpdateLegislationDTO) (*Legislation, error)
	Delete(ctx context.Context, organizationID, id string, userID int64) error
	Publish(ctx context.Context, organizationID, id string, userID int64) (*Legislation, error)
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

// scope returns the caller and the organization the permission guard
// resolved. Only system managers may work without an organization; anyone
// else is refused with 403.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (*auth.User, string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return nil, "", false
	}
	var organizationID string
	if oc, ok := access.OrgFromContext(r.Context()); ok {
		organizationID = oc.OrganizationID
	}
	if organizationID == "" && !access.IsManager(user) {
		h.Logger.WarnContext(r.Context(), "legislation request without organization", "user_id", user.ID)
		h.WriteAppError(w, internal.ErrMembershipRequired)
		return nil, "", false
	}
	return user, organizationID, true
}

func (h *Handler) ListLegislation(w http.ResponseWriter, r *http.Request) {
	_, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := ListQuery{
		Page:            atoi(q.Get("page")),
		Limit:           atoi(q.Get("limit")),
		Status:          q.Get("status"),
		LegislationType: q.Get("legislation_type"),
		Jurisdiction:    q.Get("jurisdiction"),
		Search:          q.Get("search"),
	}

	page, err := h.Service.List(r.Context(), organizationID, query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page, "")
}

func (h *Handler) GetLegislation(w http.ResponseWriter, r *http.Request) {
	_, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	l, err := h.Service.Get(r.Context(), organizationID, chi.URLParam(r, "legislationID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, l, "")
}

func (h *Handler) CreateLegislation(w http.ResponseWriter, r *http.Request) {
	user, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto CreateLegislationDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	l, err := h.Service.Create(r.Context(), organizationID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, l, "Legislation created successfully")
}

func (h *Handler) UpdateLegislation(w http.ResponseWriter, r *http.Request) {
	user, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var dto UpdateLegislationDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	l, err := h.Service.Update(r.Context(), organizationID, chi.URLParam(r, "legislationID"), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, l, "Legislation updated successfully")
}

func (h *Handler) DeleteLegislation(w http.ResponseWriter, r *http.Request) {
	user, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), organizationID, chi.URLParam(r, "legislationID"), user.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Legislation deleted successfully")
}

func (h *Handler) PublishLegislation(w http.ResponseWriter, r *http.Request) {
	user, organizationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	l, err := h.Service.Publish(r.Context(), organizationID, chi.URLParam(r, "legislationID"), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, l, "Legislation published successfully")
}

// Routes mounts the legislation API behind the legislation tool guard.
func (h *Handler) Routes(r chi.Router, gate *access.Gate) {
	view := gate.RequireToolPermission(permission.ToolLegislation, permission.ActionView)
	edit := gate.RequireToolPermission(permission.ToolLegislation, permission.ActionEdit)

	r.With(view).Get("/", h.ListLegislation)
	r.With(edit).Post("/", h.CreateLegislation)
	r.With(view).Get("/{legislationID}", h.GetLegislation)
	r.With(edit).Put("/{legislationID}", h.UpdateLegislation)
	r.With(edit).Delete("/{legislationID}", h.DeleteLegislation)
	r.With(edit).Post("/{legislationID}/publish", h.PublishLegislation)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
