package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/internal/transport"
)

// AuthProvider resolves the identity behind a request. Implementations
// return an *internal.AppError for authentication failures.
type AuthProvider interface {
	Authenticate(r *http.Request) (*User, error)
}

// UserLoader loads a user together with their system roles.
type UserLoader interface {
	GetUserWithRoles(ctx context.Context, userID int64) (*User, error)
}

// JWTAuthProvider authenticates bearer access tokens against storage.
type JWTAuthProvider struct {
	tokens TokenGenerator
	users  UserLoader
}

func NewJWTAuthProvider(tokens TokenGenerator, users UserLoader) *JWTAuthProvider {
	return &JWTAuthProvider{tokens: tokens, users: users}
}

func (p *JWTAuthProvider) Authenticate(r *http.Request) (*User, error) {
	token := transport.ExtractBearerToken(r)
	if token == "" {
		return nil, ErrAuthenticationRequired
	}

	claims, err := p.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := p.users.GetUserWithRoles(r.Context(), userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// FixedIdentityAuthProvider runs every request as one configured identity.
// It is meant for local development only.
type FixedIdentityAuthProvider struct {
	user User
}

func NewFixedIdentityAuthProvider(cfg internal.FixedIdentityConfig) *FixedIdentityAuthProvider {
	roles := make([]Role, 0, len(cfg.Roles))
	for i, rc := range cfg.Roles {
		roles = append(roles, Role{
			ID:          int64(i + 1),
			Name:        rc.Name,
			Permissions: permission.LegacyList(rc.Permissions...),
		})
	}
	return &FixedIdentityAuthProvider{
		user: User{
			ID:        cfg.UserID,
			Email:     cfg.Email,
			FirstName: "Dev",
			LastName:  "User",
			IsActive:  true,
			Roles:     roles,
		},
	}
}

func (p *FixedIdentityAuthProvider) Authenticate(*http.Request) (*User, error) {
	u := p.user
	u.Roles = append([]Role(nil), p.user.Roles...)
	return &u, nil
}

// NewAuthProvider picks the provider named by the security configuration.
func NewAuthProvider(cfg internal.SecurityConfig, tokens TokenGenerator, users UserLoader) (AuthProvider, error) {
	switch cfg.AuthMode {
	case internal.AuthModeJWT, "":
		return NewJWTAuthProvider(tokens, users), nil
	case internal.AuthModeFixed:
		return NewFixedIdentityAuthProvider(cfg.FixedIdentity), nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
}

// Middleware authenticates the request and attaches the user to its context.
func Middleware(provider AuthProvider, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := provider.Authenticate(r)
			if err != nil {
				appErr, ok := internal.IsAppError(err)
				if !ok {
					appErr = internal.NewInternalError("Authentication failed", err)
				}
				base.Logger.WarnContext(r.Context(), "authentication rejected",
					"path", r.URL.Path,
					"reason", appErr.Message)
				base.WriteAppError(w, appErr)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}
