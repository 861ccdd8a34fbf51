package access_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	orgSpringfield = "4f1c2c1e-2f6a-4c7e-9a8e-0d6c1b2a3f01"
	orgShelbyville = "9b7d6e5f-1a2b-4c3d-8e9f-112233445566"
)

type denial struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Required *struct {
		Tool   string `json:"tool"`
		Action string `json:"action"`
	} `json:"required"`
}

type scope struct {
	OrganizationID string            `json:"organization_id"`
	MembershipID   string            `json:"membership_id"`
	Matrix         permission.Matrix `json:"matrix"`
	Body           string            `json:"body"`
}

func withUser(user *auth.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(auth.ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func echoScope(w http.ResponseWriter, r *http.Request) {
	out := scope{}
	if oc, ok := access.OrgFromContext(r.Context()); ok {
		out.OrganizationID = oc.OrganizationID
		out.Matrix = oc.Matrix
		if oc.Membership != nil {
			out.MembershipID = oc.Membership.ID
		}
	}
	if r.Body != nil {
		body, _ := io.ReadAll(r.Body)
		out.Body = string(body)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func decisions(registry *prometheus.Registry, guard, outcome string) float64 {
	families, err := registry.Gather()
	Expect(err).NotTo(HaveOccurred())
	for _, family := range families {
		if family.GetName() != "authorization_decisions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["guard"] == guard && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	Expect(json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())
	return v
}

var _ = Describe("Gate", func() {
	var (
		store    *mockStore
		registry *prometheus.Registry
		metrics  *access.Metrics
		gate     *access.Gate

		planner   *auth.User
		manager   *auth.User
		outsider  *auth.User
		orgAdmin  *auth.User
		plannerRl *access.OrgRole
	)

	newRouter := func(user *auth.User) http.Handler {
		r := chi.NewRouter()
		r.Use(withUser(user))
		r.Route("/organizations/{organizationID}", func(r chi.Router) {
			r.Use(gate.ResolveOrganizationContext())
			r.Use(gate.RequireOrganizationMember())
			r.Get("/profile", echoScope)
			r.With(gate.RequireOrganizationManager()).Put("/profile", echoScope)
			r.With(gate.RequireToolPermission(permission.ToolLegislation, permission.ActionEdit)).Post("/legislations", echoScope)
		})
		r.With(gate.RequireOrganizationManager()).Post("/organizations", echoScope)
		r.With(gate.RequireToolPermission(permission.ToolLegislation, permission.ActionView)).Get("/legislations", echoScope)
		r.With(gate.RequireToolPermission(permission.ToolLegislation, permission.ActionEdit)).Post("/legislations", echoScope)
		return r
	}

	serve := func(user *auth.User, req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		newRouter(user).ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		store = newMockStore()
		store.orgs[orgSpringfield] = &access.Organization{ID: orgSpringfield, Name: "Springfield"}
		store.orgs[orgShelbyville] = &access.Organization{ID: orgShelbyville, Name: "Shelbyville"}

		plannerRl = &access.OrgRole{
			ID:          "role-planner",
			Name:        "Planner",
			IsActive:    true,
			Permissions: permission.Parse([]byte(`{"legislation":{"view":true,"edit":true},"mapping_zoning":{"view":true}}`)),
		}

		planner = &auth.User{ID: 10, Email: "planner@city.gov", IsActive: true,
			Roles: []auth.Role{{Name: "viewer", Permissions: permission.LegacyList("legislation.read")}}}
		manager = &auth.User{ID: 11, Email: "official@city.gov", IsActive: true,
			Roles: []auth.Role{{Name: "City_Official", Permissions: permission.LegacyList()}}}
		outsider = &auth.User{ID: 12, Email: "outsider@city.gov", IsActive: true}
		orgAdmin = &auth.User{ID: 13, Email: "owner@city.gov", IsActive: true}

		store.memberships = []access.Membership{
			{ID: "m-planner", OrganizationID: orgSpringfield, UserID: 10, Status: "active", OrgRole: plannerRl},
			{ID: "m-owner", OrganizationID: orgSpringfield, UserID: 13, Status: "active", IsOrgAdmin: true},
			{ID: "m-gone", OrganizationID: orgShelbyville, UserID: 12, Status: "deactivated", IsOrgAdmin: true},
		}

		registry = prometheus.NewRegistry()
		metrics = access.NewMetrics(registry)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		gate = access.NewGate(store, logger, metrics)
	})

	Describe("ResolveOrganizationContext", func() {
		It("should attach the membership and merged matrix", func() {
			rec := serve(planner, httptest.NewRequest(http.MethodGet, "/organizations/"+orgSpringfield+"/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode[scope](rec)
			Expect(body.OrganizationID).To(Equal(orgSpringfield))
			Expect(body.MembershipID).To(Equal("m-planner"))
			Expect(body.Matrix.Entry(permission.ToolLegislation)).To(Equal(permission.Entry{View: true, Edit: true}))
			Expect(body.Matrix.Entry(permission.ToolMappingZoning)).To(Equal(permission.Entry{View: true}))
		})

		It("should respond 404 for unknown organizations", func() {
			rec := serve(planner, httptest.NewRequest(http.MethodGet, "/organizations/00000000-0000-0000-0000-000000000000/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decode[denial](rec).Message).To(Equal("Organization not found"))
			Expect(decisions(registry, "organization_context", access.OutcomeNotFound)).To(Equal(1.0))
		})

		It("should refuse callers without membership", func() {
			rec := serve(outsider, httptest.NewRequest(http.MethodGet, "/organizations/"+orgSpringfield+"/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			body := decode[denial](rec)
			Expect(body.Success).To(BeFalse())
			Expect(body.Message).To(Equal("User does not have access to this organization"))
		})

		It("should not count deactivated memberships", func() {
			rec := serve(outsider, httptest.NewRequest(http.MethodGet, "/organizations/"+orgShelbyville+"/profile", nil))
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should let system managers in without membership", func() {
			rec := serve(manager, httptest.NewRequest(http.MethodGet, "/organizations/"+orgShelbyville+"/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode[scope](rec)
			Expect(body.MembershipID).To(BeEmpty())
			Expect(body.Matrix).To(Equal(permission.Full()))
		})

		It("should read the organization from the header when the path has none", func() {
			r := chi.NewRouter()
			r.Use(withUser(planner))
			r.With(gate.ResolveOrganizationContext()).Get("/scoped", echoScope)

			req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
			req.Header.Set(access.OrganizationIDHeader, orgSpringfield)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[scope](rec).MembershipID).To(Equal("m-planner"))
		})

		It("should require an organization id", func() {
			r := chi.NewRouter()
			r.Use(withUser(planner))
			r.With(gate.ResolveOrganizationContext()).Get("/scoped", echoScope)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoped", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should respond 500 when storage fails", func() {
			store.SetShouldFail(true)
			rec := serve(planner, httptest.NewRequest(http.MethodGet, "/organizations/"+orgSpringfield+"/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode[denial](rec).Success).To(BeFalse())
		})
	})

	Describe("RequireOrganizationMember", func() {
		var handler http.Handler

		BeforeEach(func() {
			handler = gate.RequireOrganizationMember()(http.HandlerFunc(echoScope))
		})

		It("should refuse a context without membership", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := auth.ContextWithUser(req.Context(), outsider)
			ctx = access.ContextWithOrg(ctx, &access.OrgContext{OrganizationID: orgShelbyville})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decode[denial](rec).Message).To(Equal("Organization membership is required"))
		})

		It("should pass system managers", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(auth.ContextWithUser(req.Context(), manager)))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should respond 401 without a user", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireOrganizationManager", func() {
		It("should pass org admins that hold no org role", func() {
			rec := serve(orgAdmin, httptest.NewRequest(http.MethodPut, "/organizations/"+orgSpringfield+"/profile", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should refuse members without organization_management edit", func() {
			rec := serve(planner, httptest.NewRequest(http.MethodPut, "/organizations/"+orgSpringfield+"/profile", nil))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			body := decode[denial](rec)
			Expect(body.Message).To(ContainSubstring("Organization management edit permission"))
			Expect(body.Required).NotTo(BeNil())
			Expect(body.Required.Tool).To(Equal("organization_management"))
			Expect(body.Required.Action).To(Equal("edit"))
		})

		It("should pass members whose role grants organization_management edit", func() {
			plannerRl.Permissions = permission.LegacyList("org.manage")
			rec := serve(planner, httptest.NewRequest(http.MethodPut, "/organizations/"+orgSpringfield+"/profile", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should only let system managers act without an organization", func() {
			rec := serve(orgAdmin, httptest.NewRequest(http.MethodPost, "/organizations", nil))
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = serve(manager, httptest.NewRequest(http.MethodPost, "/organizations", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should answer 401 before 403 for anonymous callers", func() {
			r := chi.NewRouter()
			base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
			r.Use(auth.Middleware(auth.NewJWTAuthProvider(nil, nil), base))
			r.Route("/organizations/{organizationID}", func(r chi.Router) {
				r.Use(gate.ResolveOrganizationContext())
				r.With(gate.RequireOrganizationManager()).Put("/profile", echoScope)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/organizations/"+orgSpringfield+"/profile", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireToolPermission", func() {
		It("should respond 401 without a user", func() {
			rec := serve(nil, httptest.NewRequest(http.MethodGet, "/legislations", nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decode[denial](rec).Message).To(Equal("Authentication required"))
		})

		It("should fall back to the default membership", func() {
			rec := serve(planner, httptest.NewRequest(http.MethodPost, "/legislations", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode[scope](rec)
			Expect(body.MembershipID).To(Equal("m-planner"))
			Expect(body.OrganizationID).To(Equal(orgSpringfield))
		})

		It("should deny with the required capability echoed back", func() {
			rec := serve(outsider, httptest.NewRequest(http.MethodGet, "/legislations", nil))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			body := decode[denial](rec)
			Expect(body.Message).To(Equal("Insufficient permissions"))
			Expect(body.Required.Tool).To(Equal("legislation"))
			Expect(body.Required.Action).To(Equal("view"))
			Expect(decisions(registry, "tool_permission", access.OutcomeForbidden)).To(Equal(1.0))
		})

		It("should use system roles when the named organization has no membership", func() {
			req := httptest.NewRequest(http.MethodPost, "/legislations?organizationId="+orgShelbyville, nil)
			rec := serve(planner, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = serve(planner, httptest.NewRequest(http.MethodGet, "/legislations?organizationId="+orgShelbyville, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should keep the named organization in scope without a membership there", func() {
			req := httptest.NewRequest(http.MethodGet, "/legislations", nil)
			req.Header.Set(access.OrganizationIDHeader, orgShelbyville)
			rec := serve(manager, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			out := decode[scope](rec)
			Expect(out.OrganizationID).To(Equal(orgShelbyville))
			Expect(out.MembershipID).To(BeEmpty())
		})

		It("should leave the scope empty when nothing names an organization", func() {
			rec := serve(manager, httptest.NewRequest(http.MethodGet, "/legislations", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[scope](rec).OrganizationID).To(BeEmpty())
		})

		It("should read the organization from the header", func() {
			req := httptest.NewRequest(http.MethodPost, "/legislations", nil)
			req.Header.Set(access.OrganizationIDHeader, orgShelbyville)
			rec := serve(planner, req)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should read the organization from a JSON body and keep the body intact", func() {
			payload := `{"organizationId":"` + orgSpringfield + `","title":"Zoning Act"}`
			req := httptest.NewRequest(http.MethodPost, "/legislations", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(planner, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode[scope](rec)
			Expect(body.MembershipID).To(Equal("m-planner"))
			Expect(body.Body).To(Equal(payload))
		})

		It("should reuse an organization context resolved earlier", func() {
			rec := serve(planner, httptest.NewRequest(http.MethodPost, "/organizations/"+orgSpringfield+"/legislations", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[scope](rec).OrganizationID).To(Equal(orgSpringfield))
		})

		It("should let system managers through everywhere", func() {
			rec := serve(manager, httptest.NewRequest(http.MethodPost, "/legislations", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[scope](rec).Matrix).To(Equal(permission.Full()))
		})

		It("should recompute on every request", func() {
			Expect(serve(planner, httptest.NewRequest(http.MethodPost, "/legislations", nil)).Code).To(Equal(http.StatusOK))

			plannerRl.Permissions = permission.LegacyList("legislation.read")
			Expect(serve(planner, httptest.NewRequest(http.MethodPost, "/legislations", nil)).Code).To(Equal(http.StatusForbidden))
		})
	})
})
