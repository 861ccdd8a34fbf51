package legislation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Legislation struct {
	ID              string     `gorm:"primaryKey;type:uuid"`
	OrganizationID  *string    `gorm:"column:organization_id;type:uuid;index"`
	Title           string     `gorm:"column:title;not null"`
	Process         string     `gorm:"column:process"`
	Status          string     `gorm:"column:status;not null;default:draft;index"`
	LegislationType string     `gorm:"column:legislation_type;index"`
	EffectiveFrom   *time.Time `gorm:"column:effective_from;type:date"`
	EffectiveTo     *time.Time `gorm:"column:effective_to;type:date"`
	Jurisdiction    string     `gorm:"column:jurisdiction"`
	Municipality    string     `gorm:"column:municipality"`
	Description     string     `gorm:"column:description"`
	FullText        string     `gorm:"column:full_text"`
	CreatedBy       *int64     `gorm:"column:created_by"`
	UpdatedBy       *int64     `gorm:"column:updated_by"`
	PublishedAt     *time.Time `gorm:"column:published_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Legislation) TableName() string {
	return "legislations"
}

func (l *Legislation) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
