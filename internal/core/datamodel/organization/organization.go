package organization

import (
	"time"

	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MemberStatusActive        = "active"
	MemberStatusInactive      = "inactive"
	MemberStatusPendingInvite = "pending_invite"
	MemberStatusDeactivated   = "deactivated"
)

// InactiveMemberStatuses never resolve to a usable membership.
var InactiveMemberStatuses = []string{MemberStatusInactive, MemberStatusDeactivated}

const (
	SetupStatusNotStarted = "not_started"
	SetupStatusInProgress = "in_progress"
	SetupStatusCompleted  = "completed"
	SetupStatusSkipped    = "skipped"
)

type Organization struct {
	ID                  string         `json:"id" gorm:"primaryKey;type:uuid"`
	Name                string         `json:"name" gorm:"column:name;not null"`
	StreetAddress1      string         `json:"street_address_1" gorm:"column:street_address_1"`
	StreetAddress2      string         `json:"street_address_2" gorm:"column:street_address_2"`
	City                string         `json:"city" gorm:"column:city"`
	StateRegion         string         `json:"state_region" gorm:"column:state_region"`
	PostalZip           string         `json:"postal_zip" gorm:"column:postal_zip"`
	Country             string         `json:"country" gorm:"column:country"`
	Website             string         `json:"website" gorm:"column:website"`
	PrimaryContactEmail string         `json:"primary_contact_email" gorm:"column:primary_contact_email"`
	LogoURL             *string        `json:"logo_url" gorm:"column:logo_url"`
	SetupStatus         string         `json:"setup_status" gorm:"column:setup_status;not null;default:not_started"`
	SetupCompletedAt    *time.Time     `json:"setup_completed_at" gorm:"column:setup_completed_at"`
	SetupSkippedAt      *time.Time     `json:"setup_skipped_at" gorm:"column:setup_skipped_at"`
	Metadata            datatypes.JSON `json:"metadata" gorm:"column:metadata;type:jsonb"`
	CreatedBy           *int64         `json:"created_by" gorm:"column:created_by"`
	UpdatedBy           *int64         `json:"updated_by" gorm:"column:updated_by"`
	CreatedAt           time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrgRole struct {
	ID             string             `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string             `json:"organization_id" gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_org_roles_org_name,where:deleted_at IS NULL"`
	Name           string             `json:"name" gorm:"column:name;not null;uniqueIndex:idx_org_roles_org_name,where:deleted_at IS NULL"`
	Permissions    permission.Payload `json:"permissions" gorm:"column:permissions;type:jsonb"`
	IsSystem       bool               `json:"is_system" gorm:"column:is_system;not null;default:false"`
	IsActive       bool               `json:"is_active" gorm:"column:is_active;not null;default:true"`
	CreatedBy      *int64             `json:"created_by" gorm:"column:created_by"`
	UpdatedBy      *int64             `json:"updated_by" gorm:"column:updated_by"`
	CreatedAt      time.Time          `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt     `json:"-" gorm:"column:deleted_at;index"`
}

func (OrgRole) TableName() string {
	return "org_roles"
}

func (r *OrgRole) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type OrganizationMember struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string     `json:"organization_id" gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_org_members_org_user"`
	UserID         int64      `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_org_members_org_user;index"`
	OrgRoleID      *string    `json:"org_role_id" gorm:"column:org_role_id;type:uuid;index"`
	Status         string     `json:"status" gorm:"column:status;not null;default:active"`
	IsOrgAdmin     bool       `json:"is_org_admin" gorm:"column:is_org_admin;not null;default:false"`
	InvitedBy      *int64     `json:"invited_by" gorm:"column:invited_by"`
	InvitedAt      *time.Time `json:"invited_at" gorm:"column:invited_at"`
	DeactivatedAt  *time.Time `json:"deactivated_at" gorm:"column:deactivated_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`

	Organization *Organization `json:"-" gorm:"foreignKey:OrganizationID"`
	OrgRole      *OrgRole      `json:"-" gorm:"foreignKey:OrgRoleID"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

func (m *OrganizationMember) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type OrgAuditLog struct {
	ID             string         `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string         `json:"organization_id" gorm:"column:organization_id;type:uuid;not null;index"`
	ActorUserID    *int64         `json:"actor_user_id" gorm:"column:actor_user_id"`
	EntityType     string         `json:"entity_type" gorm:"column:entity_type;not null"`
	EntityID       string         `json:"entity_id" gorm:"column:entity_id;not null"`
	Action         string         `json:"action" gorm:"column:action;not null"`
	Message        string         `json:"message" gorm:"column:message;not null"`
	PreviousValues datatypes.JSON `json:"previous_values" gorm:"column:previous_values;type:jsonb"`
	NewValues      datatypes.JSON `json:"new_values" gorm:"column:new_values;type:jsonb"`
	Metadata       datatypes.JSON `json:"metadata" gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (OrgAuditLog) TableName() string {
	return "org_audit_logs"
}

func (l *OrgAuditLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
