package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrganizationChanged = "organization.changed"
)

// Entity types recorded for organization changes.
const (
	EntityOrganization = "organization"
	EntityOrgRole      = "org_role"
	EntityMember       = "organization_member"
	EntityLegislation  = "legislation"
)

// OrganizationEvent records one change made inside an organization.
type OrganizationEvent struct {
	BaseEvent
	OrganizationID string                 `json:"organization_id"`
	ActorUserID    int64                  `json:"actor_user_id"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	Action         string                 `json:"action"`
	Message        string                 `json:"message"`
	PreviousValues map[string]interface{} `json:"previous_values,omitempty"`
	NewValues      map[string]interface{} `json:"new_values,omitempty"`
}

func NewOrganizationEvent(organizationID string, actorUserID int64, entityType, entityID, action, message string) *OrganizationEvent {
	return &OrganizationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrganizationChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"organization_id": organizationID,
				"entity_type":     entityType,
				"entity_id":       entityID,
				"action":          action,
			},
		},
		OrganizationID: organizationID,
		ActorUserID:    actorUserID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		Message:        message,
	}
}

// WithChanges attaches the before and after values.
func (e *OrganizationEvent) WithChanges(previous, next map[string]interface{}) *OrganizationEvent {
	e.PreviousValues = previous
	e.NewValues = next
	return e
}
