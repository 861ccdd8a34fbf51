package organization

import (
	"strings"

	"github.com/frahmantamala/planning-admin/internal/core/common/validation"
	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	"github.com/frahmantamala/planning-admin/internal/permission"
)

const defaultOrganizationName = "Untitled Organization"

var setupStatuses = []string{
	orgDatamodel.SetupStatusNotStarted,
	orgDatamodel.SetupStatusInProgress,
	orgDatamodel.SetupStatusCompleted,
	orgDatamodel.SetupStatusSkipped,
}

var memberStatuses = []string{
	orgDatamodel.MemberStatusActive,
	orgDatamodel.MemberStatusPendingInvite,
	orgDatamodel.MemberStatusInactive,
	orgDatamodel.MemberStatusDeactivated,
}

// CreateOrganizationDTO is the body of POST /organizations.
type CreateOrganizationDTO struct {
	Name                string  `json:"name"`
	StreetAddress1      string  `json:"street_address_1"`
	StreetAddress2      string  `json:"street_address_2"`
	City                string  `json:"city"`
	StateRegion         string  `json:"state_region"`
	PostalZip           string  `json:"postal_zip"`
	Country             string  `json:"country"`
	Website             string  `json:"website"`
	PrimaryContactEmail string  `json:"primary_contact_email"`
	LogoURL             *string `json:"logo_url"`
}

func (d *CreateOrganizationDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = defaultOrganizationName
	}
	d.PrimaryContactEmail = strings.TrimSpace(d.PrimaryContactEmail)

	v := validation.NewValidator()
	v.Field("name", d.Name).MaxLength(255)
	v.Field("primary_contact_email", d.PrimaryContactEmail).Email()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateProfileDTO carries a partial profile update; nil fields are kept.
type UpdateProfileDTO struct {
	Name                *string `json:"name"`
	StreetAddress1      *string `json:"street_address_1"`
	StreetAddress2      *string `json:"street_address_2"`
	City                *string `json:"city"`
	StateRegion         *string `json:"state_region"`
	PostalZip           *string `json:"postal_zip"`
	Country             *string `json:"country"`
	Website             *string `json:"website"`
	PrimaryContactEmail *string `json:"primary_contact_email"`
	LogoURL             *string `json:"logo_url"`
}

func (d UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(255)
	}
	v.Field("primary_contact_email", d.PrimaryContactEmail).Email()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Updates lists the columns to write.
func (d UpdateProfileDTO) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("name", d.Name)
	set("street_address_1", d.StreetAddress1)
	set("street_address_2", d.StreetAddress2)
	set("city", d.City)
	set("state_region", d.StateRegion)
	set("postal_zip", d.PostalZip)
	set("country", d.Country)
	set("website", d.Website)
	set("primary_contact_email", d.PrimaryContactEmail)
	if d.LogoURL != nil {
		if url := strings.TrimSpace(*d.LogoURL); url != "" {
			updates["logo_url"] = url
		} else {
			updates["logo_url"] = nil
		}
	}
	return updates
}

type UpdateSetupStatusDTO struct {
	SetupStatus string `json:"setup_status"`
}

// Normalized maps unknown statuses to not_started.
func (d UpdateSetupStatusDTO) Normalized() string {
	status := strings.TrimSpace(strings.ToLower(d.SetupStatus))
	for _, s := range setupStatuses {
		if s == status {
			return status
		}
	}
	return orgDatamodel.SetupStatusNotStarted
}

type CreateOrgRoleDTO struct {
	Name        string             `json:"name"`
	Permissions permission.Payload `json:"permissions"`
	IsActive    *bool              `json:"is_active"`
}

func (d *CreateOrgRoleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if appErr := validation.ValidateOrgRoleName(d.Name); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateOrgRoleDTO struct {
	Name        *string             `json:"name"`
	Permissions *permission.Payload `json:"permissions"`
	IsActive    *bool               `json:"is_active"`
}

func (d *UpdateOrgRoleDTO) Validate() error {
	if d.Name == nil {
		return nil
	}
	name := strings.TrimSpace(*d.Name)
	d.Name = &name
	if appErr := validation.ValidateOrgRoleName(name); appErr != nil {
		return appErr
	}
	return nil
}

// RolePermissionsDTO is one row of a bulk matrix update.
type RolePermissionsDTO struct {
	ID          string             `json:"id"`
	Permissions permission.Payload `json:"permissions"`
}

type PermissionsMatrixDTO struct {
	Roles []RolePermissionsDTO `json:"roles"`
}

// AddMemberDTO adds a user by id or email. Role accepts a role id or name.
type AddMemberDTO struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsOrgAdmin bool   `json:"is_org_admin"`
	Status     string `json:"status"`
}

func (d *AddMemberDTO) Validate() error {
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	d.Role = strings.TrimSpace(d.Role)
	if d.Status == "" {
		d.Status = orgDatamodel.MemberStatusActive
	}

	v := validation.NewValidator()
	if d.UserID == 0 {
		v.Field("email", d.Email).Required().Email()
	}
	v.Field("status", d.Status).OneOf(orgDatamodel.MemberStatusActive, orgDatamodel.MemberStatusPendingInvite)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ChangeRoleDTO selects the new role by id or name.
type ChangeRoleDTO struct {
	Role string `json:"role"`
}

func (d *ChangeRoleDTO) Validate() error {
	d.Role = strings.TrimSpace(d.Role)
	v := validation.NewValidator()
	v.Field("role", d.Role).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ListMembersQuery is the parsed query string of GET /members.
type ListMembersQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// Normalize clamps paging and drops unknown status filters.
func (q *ListMembersQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	q.Search = strings.TrimSpace(q.Search)
	status := strings.ToLower(strings.TrimSpace(q.Status))
	q.Status = ""
	for _, s := range memberStatuses {
		if s == status {
			q.Status = status
		}
	}
}
