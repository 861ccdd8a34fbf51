package auth

import (
	"context"
	"strings"
	"time"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/golang-jwt/jwt/v5"
)

// Role is a system role as attached to an authenticated user.
type Role struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Permissions permission.Payload `json:"permissions"`
}

// User is the authenticated identity attached to every request.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsActive  bool   `json:"is_active"`
	Roles     []Role `json:"roles"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user holds a system role, ignoring case.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

// Credentials is what login needs from storage.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

// UserRepository loads users for authentication. Absence is reported as
// nil without an error.
type UserRepository interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	GetUserWithRoles(ctx context.Context, userID int64) (*User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials     = internal.ErrInvalidCredentials
	ErrInvalidToken           = internal.ErrInvalidToken
	ErrTokenExpired           = internal.ErrTokenExpired
	ErrUserInactive           = internal.ErrUserInactive
	ErrUserNotFound           = internal.ErrUserNotFound
	ErrAuthenticationRequired = internal.ErrAuthenticationRequired
)

type ctxKey string

const contextUserKey ctxKey = "authUser"

// ContextWithUser attaches the authenticated user.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	ctx = context.WithValue(ctx, contextUserKey, u)
	return internal.ContextWithUserID(ctx, u.ID)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextUserKey).(*User)
	return u, ok && u != nil
}
