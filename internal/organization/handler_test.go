package organization_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/planning-admin/internal/access"
	accessPostgres "github.com/frahmantamala/planning-admin/internal/access/postgres"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/organization"
	orgPostgres "github.com/frahmantamala/planning-admin/internal/organization/postgres"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var _ = Describe("Handler", func() {
	var (
		db       *gorm.DB
		router   http.Handler
		caller   *auth.User
		mayor    *auth.User
		resident *auth.User
		orgID    string
	)

	do := func(method, path, body string) (*httptest.ResponseRecorder, envelope) {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var out envelope
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return rec, out
	}

	BeforeEach(func() {
		db = openDB()
		mayor = createUser(db, "mayor@springfield.gov", "Joe", "Quimby")
		mayor.Roles = []auth.Role{{Name: "city_official", Permissions: permission.Wildcard()}}
		resident = createUser(db, "resident@springfield.gov", "Homer", "Simpson")
		caller = mayor

		service := organization.NewService(orgPostgres.NewOrganizationRepository(db), nil, nil, nil)
		handler := organization.NewHandler(service)
		gate := access.NewGate(accessPostgres.NewStore(db), nil, nil)

		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.ContextWithUser(req.Context(), caller)))
			})
		})
		r.Route("/organizations", func(r chi.Router) {
			handler.Routes(r, gate)
		})
		router = r

		rec, out := do(http.MethodPost, "/organizations", `{"name":"Springfield"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var org organization.Organization
		Expect(json.Unmarshal(out.Data, &org)).To(Succeed())
		orgID = org.ID
	})

	It("should list the caller's organizations", func() {
		rec, out := do(http.MethodGet, "/organizations", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var orgs []organization.Summary
		Expect(json.Unmarshal(out.Data, &orgs)).To(Succeed())
		Expect(orgs).To(HaveLen(1))
		Expect(orgs[0].ID).To(Equal(orgID))
	})

	It("should only let managers create organizations", func() {
		caller = resident
		rec, out := do(http.MethodPost, "/organizations", `{"name":"Shelbyville"}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(out.Success).To(BeFalse())
	})

	It("should keep non-members out", func() {
		caller = resident
		rec, _ := do(http.MethodGet, "/organizations/"+orgID+"/profile", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should return 404 for unknown organizations", func() {
		rec, _ := do(http.MethodGet, "/organizations/6f9619ff-8b86-d011-b42d-00cf4fc964ff/profile", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Context("as a member with a view-only role", func() {
		BeforeEach(func() {
			rec, _ := do(http.MethodPost, "/organizations/"+orgID+"/members", `{"email":"resident@springfield.gov","role":"Reviewer"}`)
			Expect(rec.Code).To(Equal(http.StatusCreated))
			caller = resident
		})

		It("should allow reads", func() {
			rec, _ := do(http.MethodGet, "/organizations/"+orgID+"/profile", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec, out := do(http.MethodGet, "/organizations/"+orgID+"/members?limit=5", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var page organization.MemberPage
			Expect(json.Unmarshal(out.Data, &page)).To(Succeed())
			Expect(page.Pagination.Total).To(Equal(int64(2)))
			Expect(page.Pagination.Limit).To(Equal(5))
		})

		It("should reject writes that need organization management edit", func() {
			rec, out := do(http.MethodPut, "/organizations/"+orgID+"/setup-status", `{"setup_status":"completed"}`)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(out.Message).To(ContainSubstring("Organization management"))
		})

		It("should describe the caller's permissions", func() {
			rec, out := do(http.MethodGet, "/organizations/"+orgID+"/permissions/me", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var perms organization.MyPermissions
			Expect(json.Unmarshal(out.Data, &perms)).To(Succeed())
			Expect(perms.IsOrgAdmin).To(BeFalse())
			Expect(perms.Role.Name).To(Equal("Reviewer"))
			Expect(perms.Permissions.Allows(permission.ToolLegislation, permission.ActionView)).To(BeTrue())
			Expect(perms.Permissions.Allows(permission.ToolLegislation, permission.ActionEdit)).To(BeFalse())
		})

		It("should lose access once deactivated", func() {
			caller = mayor
			rec, out := do(http.MethodGet, "/organizations/"+orgID+"/members?status=active", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var page organization.MemberPage
			Expect(json.Unmarshal(out.Data, &page)).To(Succeed())

			var memberID string
			for _, m := range page.Members {
				if m.UserID == resident.ID {
					memberID = m.ID
				}
			}
			Expect(memberID).NotTo(BeEmpty())

			rec, _ = do(http.MethodPost, "/organizations/"+orgID+"/members/"+memberID+"/deactivate", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			caller = resident
			rec, _ = do(http.MethodGet, "/organizations/"+orgID+"/profile", "")
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})

	It("should manage org roles end to end", func() {
		rec, out := do(http.MethodPost, "/organizations/"+orgID+"/org-roles",
			`{"name":"Zoning Clerk","permissions":{"mapping_zoning":{"edit":true}}}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var role organization.Role
		Expect(json.Unmarshal(out.Data, &role)).To(Succeed())
		Expect(role.Permissions.Allows(permission.ToolMappingZoning, permission.ActionView)).To(BeTrue())

		rec, _ = do(http.MethodPost, "/organizations/"+orgID+"/org-roles", `{"name":"zoning clerk"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))

		rec, _ = do(http.MethodPut, "/organizations/"+orgID+"/org-roles/"+role.ID, `{"is_active":false}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, _ = do(http.MethodDelete, "/organizations/"+orgID+"/org-roles/"+role.ID, "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, _ = do(http.MethodDelete, "/organizations/"+orgID+"/org-roles/"+role.ID, "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed bodies", func() {
		rec, out := do(http.MethodPost, "/organizations/"+orgID+"/org-roles", `{"name":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(out.Success).To(BeFalse())
	})

	It("should report the setup status", func() {
		rec, _ := do(http.MethodPut, "/organizations/"+orgID+"/setup-status", `{"setup_status":"in_progress"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, out := do(http.MethodGet, "/organizations/"+orgID+"/setup-status", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var status organization.SetupStatus
		Expect(json.Unmarshal(out.Data, &status)).To(Succeed())
		Expect(status.SetupStatus).To(Equal("in_progress"))
	})
})
