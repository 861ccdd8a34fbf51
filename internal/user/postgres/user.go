package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	"github.com/frahmantamala/planning-admin/internal/user"
	"github.com/jmoiron/sqlx"
)

const profileQuery = `
SELECT id, email, first_name, last_name, is_active, last_login, created_at
FROM users
WHERE id = $1`

const membershipsQuery = `
SELECT om.id, om.organization_id, o.name AS organization_name, r.name AS role_name,
       om.is_org_admin, om.status, om.created_at
FROM organization_members om
JOIN organizations o ON o.id = om.organization_id
LEFT JOIN org_roles r ON r.id = om.org_role_id AND r.deleted_at IS NULL
WHERE om.user_id = $1 AND om.status NOT IN ($2, $3)
ORDER BY om.is_org_admin DESC, om.created_at ASC`

type pgRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) user.Repository {
	return &pgRepo{db: db}
}

func (p *pgRepo) GetProfile(ctx context.Context, userID int64) (*user.Profile, error) {
	var u user.Profile
	if err := p.db.GetContext(ctx, &u, profileQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile query: %w", err)
	}
	return &u, nil
}

func (p *pgRepo) ListMemberships(ctx context.Context, userID int64) ([]user.Membership, error) {
	var rows []user.Membership
	err := p.db.SelectContext(ctx, &rows, membershipsQuery, userID,
		orgDatamodel.MemberStatusInactive, orgDatamodel.MemberStatusDeactivated)
	if err != nil {
		return nil, fmt.Errorf("list memberships query: %w", err)
	}
	return rows, nil
}
