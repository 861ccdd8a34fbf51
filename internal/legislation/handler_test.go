package legislation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/legislation"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// memberStore is an in-memory access.Store.
type memberStore struct {
	orgs        map[string]*access.Organization
	memberships []access.Membership
}

func (s *memberStore) FindOrganizationByID(_ context.Context, id string) (*access.Organization, error) {
	return s.orgs[id], nil
}

func (s *memberStore) FindActiveMembership(_ context.Context, orgID string, userID int64) (*access.Membership, error) {
	for i := range s.memberships {
		if s.memberships[i].OrganizationID == orgID && s.memberships[i].UserID == userID {
			m := s.memberships[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (s *memberStore) ListActiveMemberships(_ context.Context, userID int64) ([]access.Membership, error) {
	var out []access.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Required *struct {
		Tool   string `json:"tool"`
		Action string `json:"action"`
	} `json:"required"`
}

func legislationRole(orgID string, entry permission.Entry) *access.OrgRole {
	return &access.OrgRole{
		ID:             orgID + "-role",
		OrganizationID: orgID,
		Name:           "Custom",
		Permissions:    permission.MatrixPayload(permission.Empty().With(permission.ToolLegislation, entry)),
		IsActive:       true,
	}
}

var _ = Describe("Handler", func() {
	var (
		router   http.Handler
		repo     *mockRepository
		caller   *auth.User
		planner  *auth.User
		reviewer *auth.User
		outsider *auth.User
		viewer   *auth.User
		admin    *auth.User
	)

	do := func(method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var out envelope
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return rec, out
	}

	decode := func(out envelope) legislation.Legislation {
		var l legislation.Legislation
		Expect(json.Unmarshal(out.Data, &l)).To(Succeed())
		return l
	}

	BeforeEach(func() {
		planner = &auth.User{ID: 1, Email: "planner@springfield.gov", IsActive: true}
		reviewer = &auth.User{ID: 2, Email: "reviewer@springfield.gov", IsActive: true}
		outsider = &auth.User{ID: 3, Email: "outsider@example.com", IsActive: true}
		viewer = &auth.User{ID: 5, Email: "viewer@state.gov", IsActive: true,
			Roles: []auth.Role{{Name: "viewer", Permissions: permission.LegacyList("legislation.read", "mapping.read")}}}
		admin = &auth.User{ID: 4, Email: "admin@state.gov", IsActive: true, Roles: []auth.Role{{Name: "Admin"}}}
		caller = planner

		created := time.Now().Add(-time.Hour)
		store := &memberStore{
			orgs: map[string]*access.Organization{
				orgSpringfield: {ID: orgSpringfield, Name: "Springfield"},
				orgShelbyville: {ID: orgShelbyville, Name: "Shelbyville"},
			},
			memberships: []access.Membership{
				{ID: "m-1", OrganizationID: orgSpringfield, UserID: planner.ID, Status: "active", CreatedAt: created,
					OrgRole: legislationRole(orgSpringfield, permission.Entry{View: true, Edit: true})},
				{ID: "m-2", OrganizationID: orgShelbyville, UserID: planner.ID, Status: "active", CreatedAt: time.Now(),
					OrgRole: legislationRole(orgShelbyville, permission.Entry{View: true})},
				{ID: "m-3", OrganizationID: orgSpringfield, UserID: reviewer.ID, Status: "active", CreatedAt: created,
					OrgRole: legislationRole(orgSpringfield, permission.Entry{View: true})},
			},
		}

		repo = newMockRepository()
		handler := legislation.NewHandler(legislation.NewService(repo, nil, nil))
		gate := access.NewGate(store, nil, nil)

		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.ContextWithUser(req.Context(), caller)))
			})
		})
		r.Route("/legislations", func(r chi.Router) {
			handler.Routes(r, gate)
		})
		router = r
	})

	It("should create legislation in the caller's default organization", func() {
		rec, out := do(http.MethodPost, "/legislations", `{"title":"Zoning Bylaw","effective_from":"2024-01-01"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		l := decode(out)
		Expect(*l.OrganizationID).To(Equal(orgSpringfield))
		Expect(l.Status).To(Equal(legislation.StatusDraft))
		Expect(l.EffectiveFrom.Format("2006-01-02")).To(Equal("2024-01-01"))
	})

	It("should check the organization named in the body", func() {
		rec, out := do(http.MethodPost, "/legislations", `{"title":"Bylaw","organizationId":"`+orgShelbyville+`"}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(out.Required.Tool).To(Equal("legislation"))
		Expect(out.Required.Action).To(Equal("edit"))
	})

	It("should use the organization named in the header", func() {
		do(http.MethodPost, "/legislations", `{"title":"Springfield Bylaw"}`)

		rec, out := do(http.MethodGet, "/legislations", "", access.OrganizationIDHeader, orgShelbyville)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page legislation.Page
		Expect(json.Unmarshal(out.Data, &page)).To(Succeed())
		Expect(page.Legislations).To(BeEmpty())
	})

	It("should let view-only members read but not write", func() {
		_, out := do(http.MethodPost, "/legislations", `{"title":"Bylaw"}`)
		id := decode(out).ID

		caller = reviewer
		rec, out := do(http.MethodGet, "/legislations/"+id, "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(out).Title).To(Equal("Bylaw"))

		rec, _ = do(http.MethodPut, "/legislations/"+id, `{"title":"Edited"}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		rec, _ = do(http.MethodPost, "/legislations/"+id+"/publish", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		rec, _ = do(http.MethodDelete, "/legislations/"+id, "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should refuse callers without any membership", func() {
		caller = outsider
		rec, out := do(http.MethodGet, "/legislations", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(out.Success).To(BeFalse())
	})

	It("should refuse system role holders that name no organization", func() {
		do(http.MethodPost, "/legislations", `{"title":"Springfield Bylaw"}`)

		caller = viewer
		rec, out := do(http.MethodGet, "/legislations", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(out.Message).To(Equal("Organization membership is required"))
	})

	It("should scope system role holders to the organization they name", func() {
		do(http.MethodPost, "/legislations", `{"title":"Springfield Bylaw"}`)

		caller = viewer
		rec, out := do(http.MethodGet, "/legislations", "", access.OrganizationIDHeader, orgShelbyville)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page legislation.Page
		Expect(json.Unmarshal(out.Data, &page)).To(Succeed())
		Expect(page.Legislations).To(BeEmpty())
	})

	It("should keep system admins inside the organization they name", func() {
		do(http.MethodPost, "/legislations", `{"title":"Springfield Bylaw"}`)

		caller = admin
		rec, out := do(http.MethodGet, "/legislations", "", access.OrganizationIDHeader, orgShelbyville)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page legislation.Page
		Expect(json.Unmarshal(out.Data, &page)).To(Succeed())
		Expect(page.Legislations).To(BeEmpty())
		Expect(page.Pagination.Total).To(BeZero())

		rec, out = do(http.MethodPost, "/legislations", `{"title":"Shelbyville Bylaw"}`, access.OrganizationIDHeader, orgShelbyville)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(*decode(out).OrganizationID).To(Equal(orgShelbyville))
	})

	It("should let system admins work across organizations", func() {
		do(http.MethodPost, "/legislations", `{"title":"Springfield Bylaw"}`)

		caller = admin
		rec, out := do(http.MethodGet, "/legislations", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page legislation.Page
		Expect(json.Unmarshal(out.Data, &page)).To(Succeed())
		Expect(page.Pagination.Total).To(Equal(int64(1)))
	})

	It("should publish and then lock the content", func() {
		_, out := do(http.MethodPost, "/legislations", `{"title":"Bylaw"}`)
		id := decode(out).ID

		rec, out := do(http.MethodPost, "/legislations/"+id+"/publish", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(out).Status).To(Equal(legislation.StatusActive))

		rec, _ = do(http.MethodPut, "/legislations/"+id, `{"title":"Edited"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec, out = do(http.MethodPut, "/legislations/"+id, `{"status":"completed"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(out).Status).To(Equal(legislation.StatusCompleted))
	})

	It("should delete legislation", func() {
		_, out := do(http.MethodPost, "/legislations", `{"title":"Bylaw"}`)
		id := decode(out).ID

		rec, _ := do(http.MethodDelete, "/legislations/"+id, "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		rec, _ = do(http.MethodGet, "/legislations/"+id, "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed bodies", func() {
		rec, out := do(http.MethodPost, "/legislations", `{"title":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(out.Success).To(BeFalse())
	})

	It("should reject malformed dates", func() {
		rec, _ := do(http.MethodPost, "/legislations", `{"title":"Bylaw","effective_from":"soon"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
