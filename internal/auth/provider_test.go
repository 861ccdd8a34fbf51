package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("AuthProvider", func() {
	var (
		repo     *mockUserRepository
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator("test-access-secret", "test-refresh-secret", time.Minute, time.Hour)
	})

	ginkgo.Describe("JWTAuthProvider", func() {
		var provider *JWTAuthProvider

		ginkgo.BeforeEach(func() {
			provider = NewJWTAuthProvider(tokenGen, repo)
		})

		ginkgo.It("should require a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			_, err := provider.Authenticate(req)
			gomega.Expect(err).To(gomega.Equal(ErrAuthenticationRequired))
		})

		ginkgo.It("should load the user behind a valid token", func() {
			token, err := tokenGen.GenerateAccessToken("1", "planner@city.gov")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			user, err := provider.Authenticate(req)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(user.HasRole("PLANNER")).To(gomega.BeTrue())
		})

		ginkgo.It("should reject tokens signed with another secret", func() {
			token, err := tokenGen.GenerateRefreshToken("1", "planner@city.gov")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			_, err = provider.Authenticate(req)
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})

		ginkgo.It("should reject inactive users", func() {
			token, err := tokenGen.GenerateAccessToken("3", "disabled@city.gov")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			_, err = provider.Authenticate(req)
			gomega.Expect(err).To(gomega.Equal(ErrUserInactive))
		})
	})

	ginkgo.Describe("FixedIdentityAuthProvider", func() {
		ginkgo.It("should return the configured identity for every request", func() {
			provider := NewFixedIdentityAuthProvider(internal.DefaultFixedIdentity())
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)

			user, err := provider.Authenticate(req)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.Email).To(gomega.Equal("dev@test.com"))
			gomega.Expect(user.HasRole("admin")).To(gomega.BeTrue())
			gomega.Expect(user.Roles[0].Permissions.Matrix()).To(gomega.Equal(permission.Full()))
		})

		ginkgo.It("should hand out independent copies", func() {
			provider := NewFixedIdentityAuthProvider(internal.DefaultFixedIdentity())
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)

			first, _ := provider.Authenticate(req)
			first.Roles[0].Name = "changed"
			second, _ := provider.Authenticate(req)
			gomega.Expect(second.Roles[0].Name).To(gomega.Equal("admin"))
		})
	})

	ginkgo.Describe("NewAuthProvider", func() {
		ginkgo.It("should pick the provider named by auth mode", func() {
			p, err := NewAuthProvider(internal.SecurityConfig{AuthMode: internal.AuthModeFixed, FixedIdentity: internal.DefaultFixedIdentity()}, tokenGen, repo)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.BeAssignableToTypeOf(&FixedIdentityAuthProvider{}))

			p, err = NewAuthProvider(internal.SecurityConfig{AuthMode: internal.AuthModeJWT}, tokenGen, repo)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.BeAssignableToTypeOf(&JWTAuthProvider{}))
		})

		ginkgo.It("should reject unknown modes", func() {
			_, err := NewAuthProvider(internal.SecurityConfig{AuthMode: "saml"}, tokenGen, repo)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Middleware", func() {
		var (
			base    *transport.BaseHandler
			handler http.Handler
			seen    *User
		)

		ginkgo.BeforeEach(func() {
			seen = nil
			base = transport.NewBaseHandler(slog.Default())
			handler = Middleware(NewJWTAuthProvider(tokenGen, repo), base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				gomega.Expect(internal.UserIDFromContext(r.Context())).To(gomega.Equal(seen.ID))
				w.WriteHeader(http.StatusOK)
			}))
		})

		ginkgo.It("should respond 401 without credentials", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			var body map[string]any
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			gomega.Expect(body["message"]).To(gomega.Equal("Authentication required"))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should respond 403 for inactive accounts", func() {
			token, _ := tokenGen.GenerateAccessToken("3", "disabled@city.gov")
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should attach the user on success", func() {
			token, _ := tokenGen.GenerateAccessToken("2", "admin@city.gov")
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.Email).To(gomega.Equal("admin@city.gov"))
		})
	})
})
