package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	"github.com/frahmantamala/planning-admin/internal/core/events"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one audit log row as returned to clients.
type Entry = orgDatamodel.OrgAuditLog

// Sink persists organization changes to org_audit_logs.
type Sink struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSink(db *gorm.DB, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{db: db, logger: logger}
}

// Register subscribes the sink to organization events.
func (s *Sink) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeOrganizationChanged, s.Handle)
}

// Handle is the event bus handler.
func (s *Sink) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.OrganizationEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	return s.Record(ctx, e)
}

// Record writes one audit row. Incomplete events are dropped.
func (s *Sink) Record(ctx context.Context, e *events.OrganizationEvent) error {
	if e.OrganizationID == "" || e.EntityType == "" || e.EntityID == "" || e.Action == "" || e.Message == "" {
		s.logger.DebugContext(ctx, "dropping incomplete audit event", "event_id", e.EventID())
		return nil
	}

	row := orgDatamodel.OrgAuditLog{
		OrganizationID: e.OrganizationID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         e.Action,
		Message:        e.Message,
		PreviousValues: toJSON(e.PreviousValues),
		NewValues:      toJSON(e.NewValues),
		Metadata:       toJSON(map[string]interface{}{"event_id": e.EventID()}),
	}
	if e.ActorUserID != 0 {
		actor := e.ActorUserID
		row.ActorUserID = &actor
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// List returns the newest audit rows of an organization.
func (s *Sink) List(ctx context.Context, organizationID string, limit, offset int) ([]Entry, int64, error) {
	var (
		rows  []Entry
		total int64
	)
	scoped := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&orgDatamodel.OrgAuditLog{}).Where("organization_id = ?", organizationID)
	}
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := scoped().Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func toJSON(v map[string]interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
