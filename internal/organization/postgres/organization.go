package postgres

import (
	"context"
	"errors"
	"strings"

	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/planning-admin/internal/organization"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationRepository implements organization.Repository using GORM.
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

var _ organization.Repository = (*OrganizationRepository)(nil)

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *OrganizationRepository) ListMembershipsForUser(ctx context.Context, userID int64) ([]orgDatamodel.OrganizationMember, error) {
	var rows []orgDatamodel.OrganizationMember
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		Where("status NOT IN ?", orgDatamodel.InactiveMemberStatuses).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CreateOrganization inserts the organization, its roles and the owner
// membership in one transaction.
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *orgDatamodel.Organization, roles []*orgDatamodel.OrgRole, owner *orgDatamodel.OrganizationMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		for _, role := range roles {
			role.OrganizationID = org.ID
			if err := tx.Create(role).Error; err != nil {
				return err
			}
		}
		owner.OrganizationID = org.ID
		return tx.Create(owner).Error
	})
}

func (r *OrganizationRepository) GetOrganization(ctx context.Context, organizationID string) (*orgDatamodel.Organization, error) {
	if !validID(organizationID) {
		return nil, nil
	}
	var org orgDatamodel.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", organizationID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) UpdateOrganization(ctx context.Context, organizationID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&orgDatamodel.Organization{}).
		Where("id = ?", organizationID).
		Updates(updates).Error
}

func (r *OrganizationRepository) ListRoles(ctx context.Context, organizationID string) ([]orgDatamodel.OrgRole, error) {
	var rows []orgDatamodel.OrgRole
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *OrganizationRepository) GetRole(ctx context.Context, organizationID, roleID string) (*orgDatamodel.OrgRole, error) {
	if !validID(roleID) {
		return nil, nil
	}
	return r.firstRole(r.db.WithContext(ctx).Where("organization_id = ? AND id = ?", organizationID, roleID))
}

func (r *OrganizationRepository) FindRoleByName(ctx context.Context, organizationID, name string) (*orgDatamodel.OrgRole, error) {
	return r.firstRole(r.db.WithContext(ctx).
		Where("organization_id = ? AND LOWER(name) = ?", organizationID, strings.ToLower(strings.TrimSpace(name))))
}

func (r *OrganizationRepository) firstRole(q *gorm.DB) (*orgDatamodel.OrgRole, error) {
	var role orgDatamodel.OrgRole
	if err := q.First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *OrganizationRepository) CreateRole(ctx context.Context, role *orgDatamodel.OrgRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *OrganizationRepository) UpdateRole(ctx context.Context, roleID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&orgDatamodel.OrgRole{}).
		Where("id = ?", roleID).
		Updates(updates).Error
}

func (r *OrganizationRepository) DeleteRole(ctx context.Context, organizationID, roleID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&orgDatamodel.OrganizationMember{}).
			Where("organization_id = ? AND org_role_id = ?", organizationID, roleID).
			Update("org_role_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("organization_id = ? AND id = ?", organizationID, roleID).
			Delete(&orgDatamodel.OrgRole{}).Error
	})
}

func (r *OrganizationRepository) ListMembers(ctx context.Context, organizationID string, filter organization.MemberFilter) ([]orgDatamodel.OrganizationMember, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&orgDatamodel.OrganizationMember{}).
			Where("organization_members.organization_id = ?", organizationID)
		if filter.Status != "" {
			q = q.Where("organization_members.status = ?", filter.Status)
		}
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Joins("JOIN users ON users.id = organization_members.user_id").
				Where("LOWER(users.email) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?", like, like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []orgDatamodel.OrganizationMember
	err := scoped().
		Preload("OrgRole").
		Order("organization_members.updated_at DESC").
		Order("organization_members.id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *OrganizationRepository) GetMember(ctx context.Context, organizationID, memberID string) (*orgDatamodel.OrganizationMember, error) {
	if !validID(memberID) {
		return nil, nil
	}
	return r.firstMember(r.db.WithContext(ctx).Where("organization_id = ? AND id = ?", organizationID, memberID))
}

func (r *OrganizationRepository) FindMemberByUser(ctx context.Context, organizationID string, userID int64) (*orgDatamodel.OrganizationMember, error) {
	return r.firstMember(r.db.WithContext(ctx).Where("organization_id = ? AND user_id = ?", organizationID, userID))
}

func (r *OrganizationRepository) firstMember(q *gorm.DB) (*orgDatamodel.OrganizationMember, error) {
	var row orgDatamodel.OrganizationMember
	if err := q.Preload("OrgRole").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *OrganizationRepository) CreateMember(ctx context.Context, member *orgDatamodel.OrganizationMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *OrganizationRepository) UpdateMember(ctx context.Context, memberID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&orgDatamodel.OrganizationMember{}).
		Where("id = ?", memberID).
		Updates(updates).Error
}

func (r *OrganizationRepository) GetUsers(ctx context.Context, userIDs []int64) (map[int64]userDatamodel.User, error) {
	out := make(map[int64]userDatamodel.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *OrganizationRepository) FindUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
