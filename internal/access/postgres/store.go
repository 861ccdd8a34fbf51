package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/planning-admin/internal/access"
	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store reads organizations and memberships for permission resolution.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindOrganizationByID(ctx context.Context, organizationID string) (*access.Organization, error) {
	if _, err := uuid.Parse(organizationID); err != nil {
		return nil, nil
	}

	var org orgDatamodel.Organization
	err := s.db.WithContext(ctx).Where("id = ?", organizationID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &access.Organization{
		ID:          org.ID,
		Name:        org.Name,
		SetupStatus: org.SetupStatus,
	}, nil
}

func (s *Store) FindActiveMembership(ctx context.Context, organizationID string, userID int64) (*access.Membership, error) {
	if _, err := uuid.Parse(organizationID); err != nil {
		return nil, nil
	}

	var row orgDatamodel.OrganizationMember
	err := s.db.WithContext(ctx).
		Preload("OrgRole").
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Where("status NOT IN ?", orgDatamodel.InactiveMemberStatuses).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m := toMembership(row)
	return &m, nil
}

func (s *Store) ListActiveMemberships(ctx context.Context, userID int64) ([]access.Membership, error) {
	var rows []orgDatamodel.OrganizationMember
	err := s.db.WithContext(ctx).
		Preload("OrgRole").
		Where("user_id = ?", userID).
		Where("status NOT IN ?", orgDatamodel.InactiveMemberStatuses).
		Order("is_org_admin DESC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]access.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMembership(row))
	}
	return out, nil
}

func toMembership(row orgDatamodel.OrganizationMember) access.Membership {
	m := access.Membership{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		UserID:         row.UserID,
		Status:         row.Status,
		IsOrgAdmin:     row.IsOrgAdmin,
		CreatedAt:      row.CreatedAt,
	}
	if row.OrgRole != nil {
		m.OrgRole = &access.OrgRole{
			ID:             row.OrgRole.ID,
			OrganizationID: row.OrgRole.OrganizationID,
			Name:           row.OrgRole.Name,
			Permissions:    row.OrgRole.Permissions,
			IsSystem:       row.OrgRole.IsSystem,
			IsActive:       row.OrgRole.IsActive,
		}
	}
	return m
}
