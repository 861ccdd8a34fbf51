package rest

import (
	"database/sql"
	"log/slog"

	"github.com/frahmantamala/planning-admin/api"
	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/auth"
	"github.com/frahmantamala/planning-admin/internal/legislation"
	"github.com/frahmantamala/planning-admin/internal/organization"
	"github.com/frahmantamala/planning-admin/internal/transport"
	"github.com/frahmantamala/planning-admin/internal/transport/middleware"
	"github.com/frahmantamala/planning-admin/internal/transport/swagger"
	"github.com/frahmantamala/planning-admin/internal/user"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the feature handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Organization *organization.Handler
	Legislation  *legislation.Handler
}

// Options carries the shared infrastructure the router wires in.
type Options struct {
	DB           *sql.DB
	AuthProvider auth.AuthProvider
	Gate         *access.Gate
	Server       internal.ServerConfig
	Metrics      internal.MetricsConfig
	Registry     *prometheus.Registry
	Logger       *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	healthHandler := NewHealthHandler(opts.DB)
	base := transport.NewBaseHandler(opts.Logger)

	// Apply global middleware
	router.Use(middleware.CORS(opts.Server.AllowedOrigins))
	router.Use(middleware.AttachLogger(base.Logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(base.Logger))
	router.Use(middleware.RecoveryMiddleware(base.Logger))
	if opts.Server.RateLimit.Enabled {
		router.Use(middleware.NewRateLimiter(opts.Server.RateLimit, base).Middleware)
	}
	if opts.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(opts.Registry).Middleware)
	}

	// Docs and metrics live outside the API prefix
	router.Get("/openapi.yml", swagger.SpecHandler(api.OpenAPI))
	router.Handle("/swagger/*", swagger.Handler())
	if opts.Registry != nil && opts.Metrics.Enabled {
		router.Handle(opts.Metrics.Path, promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/ping", healthHandler.Ping)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if opts.AuthProvider == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(opts.AuthProvider, base))
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Route("/users", h.User.Routes)
			}

			if opts.Gate == nil {
				return
			}

			if h.Organization != nil {
				pr.Route("/organizations", func(or chi.Router) {
					h.Organization.Routes(or, opts.Gate)
				})
			}
			if h.Legislation != nil {
				pr.Route("/legislations", func(lr chi.Router) {
					h.Legislation.Routes(lr, opts.Gate)
				})
			}
		})
	})
}
