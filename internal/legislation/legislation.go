package legislation

import (
	"context"
	"time"
)

type Legislation struct {
	ID              string     `json:"id"`
	OrganizationID  *string    `json:"organization_id"`
	Title           string     `json:"title"`
	Process         string     `json:"process"`
	Status          string     `json:"status"`
	LegislationType string     `json:"legislation_type"`
	EffectiveFrom   *time.Time `json:"effective_from,omitempty"`
	EffectiveTo     *time.Time `json:"effective_to,omitempty"`
	Jurisdiction    string     `json:"jurisdiction"`
	Municipality    string     `json:"municipality"`
	Description     string     `json:"description"`
	FullText        string     `json:"full_text,omitempty"`
	CreatedBy       *int64     `json:"created_by,omitempty"`
	UpdatedBy       *int64     `json:"updated_by,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const (
	StatusDraft            = "draft"
	StatusPending          = "pending"
	StatusAwaitingApproval = "awaiting-approval"
	StatusActive           = "active"
	StatusRejected         = "rejected"
	StatusCancelled        = "cancelled"
	StatusCompleted        = "completed"
)

// Statuses lists every accepted status.
var Statuses = []string{
	StatusDraft,
	StatusPending,
	StatusAwaitingApproval,
	StatusActive,
	StatusRejected,
	StatusCancelled,
	StatusCompleted,
}

// IsPublished reports whether the legislation is in force.
func (l *Legislation) IsPublished() bool {
	return l.Status == StatusActive
}

// Publish puts the legislation in force, keeping the first publish time.
func (l *Legislation) Publish(userID int64) {
	now := time.Now()
	l.Status = StatusActive
	if l.PublishedAt == nil {
		l.PublishedAt = &now
	}
	l.UpdatedBy = &userID
	l.UpdatedAt = now
}

func NewLegislation(organizationID string, userID int64, dto CreateLegislationDTO) *Legislation {
	now := time.Now()
	l := &Legislation{
		Title:           dto.Title,
		Process:         dto.Process,
		Status:          dto.Status,
		LegislationType: dto.LegislationType,
		EffectiveFrom:   dto.EffectiveFrom.Ptr(),
		EffectiveTo:     dto.EffectiveTo.Ptr(),
		Jurisdiction:    dto.Jurisdiction,
		Municipality:    dto.Municipality,
		Description:     dto.Description,
		FullText:        dto.FullText,
		CreatedBy:       &userID,
		UpdatedBy:       &userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if organizationID != "" {
		l.OrganizationID = &organizationID
	}
	if l.Status == "" {
		l.Status = StatusDraft
	}
	if l.IsPublished() {
		l.PublishedAt = &now
	}
	return l
}

// Filter narrows a listing. An empty OrganizationID lists across
// organizations.
type Filter struct {
	OrganizationID  string
	Status          string
	LegislationType string
	Jurisdiction    string
	Search          string
	Limit           int
	Offset          int
}

// Repository persists legislation. GetByID reports absence as nil.
type Repository interface {
	Create(ctx context.Context, l *Legislation) error
	GetByID(ctx context.Context, id string) (*Legislation, error)
	List(ctx context.Context, filter Filter) ([]*Legislation, int64, error)
	Update(ctx context.Context, l *Legislation) error
	Delete(ctx context.Context, id string) error
}
