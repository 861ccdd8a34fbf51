package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/planning-admin/internal/auth"
	userDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}, nil
}

// GetUserWithRoles loads the user and every non-expired system role.
func (r *Repository) GetUserWithRoles(ctx context.Context, userID int64) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var roles []userDatamodel.Role
	err = r.db.WithContext(ctx).
		Model(&userDatamodel.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Where("(user_roles.expires_at IS NULL OR user_roles.expires_at > ?)", time.Now()).
		Order("roles.id ASC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	out := &auth.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		Roles:     make([]auth.Role, 0, len(roles)),
	}
	for _, role := range roles {
		out.Roles = append(out.Roles, auth.Role{
			ID:          role.ID,
			Name:        role.Name,
			Permissions: role.Permissions,
		})
	}
	return out, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}

// GetUserByEmail loads a user with roles by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	creds, err := r.GetCredentialsByEmail(ctx, email)
	if err != nil || creds == nil {
		return nil, err
	}
	return r.GetUserWithRoles(ctx, creds.UserID)
}
