package postgres

import (
	"context"
	"errors"
	"strings"

	legislationDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/legislation"
	"github.com/frahmantamala/planning-admin/internal/legislation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LegislationRepository implements legislation.Repository using GORM.
type LegislationRepository struct {
	db *gorm.DB
}

func NewLegislationRepository(db *gorm.DB) *LegislationRepository {
	return &LegislationRepository{db: db}
}

var _ legislation.Repository = (*LegislationRepository)(nil)

func (r *LegislationRepository) Create(ctx context.Context, l *legislation.Legislation) error {
	row := toDataModel(l)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*l = *fromDataModel(row)
	return nil
}

func (r *LegislationRepository) GetByID(ctx context.Context, id string) (*legislation.Legislation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var row legislationDatamodel.Legislation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromDataModel(&row), nil
}

// List filters, counts and pages legislation, most recently updated first.
func (r *LegislationRepository) List(ctx context.Context, filter legislation.Filter) ([]*legislation.Legislation, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&legislationDatamodel.Legislation{})
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.LegislationType != "" {
			q = q.Where("legislation_type = ?", filter.LegislationType)
		}
		if filter.Jurisdiction != "" {
			q = q.Where("jurisdiction = ?", filter.Jurisdiction)
		}
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("LOWER(title) LIKE ? OR LOWER(process) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []legislationDatamodel.Legislation
	q := scoped().Order("updated_at DESC").Order("id")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*legislation.Legislation, 0, len(rows))
	for i := range rows {
		out = append(out, fromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (r *LegislationRepository) Update(ctx context.Context, l *legislation.Legislation) error {
	row := toDataModel(l)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	l.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *LegislationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&legislationDatamodel.Legislation{}).Error
}

func toDataModel(l *legislation.Legislation) *legislationDatamodel.Legislation {
	return &legislationDatamodel.Legislation{
		ID:              l.ID,
		OrganizationID:  l.OrganizationID,
		Title:           l.Title,
		Process:         l.Process,
		Status:          l.Status,
		LegislationType: l.LegislationType,
		EffectiveFrom:   l.EffectiveFrom,
		EffectiveTo:     l.EffectiveTo,
		Jurisdiction:    l.Jurisdiction,
		Municipality:    l.Municipality,
		Description:     l.Description,
		FullText:        l.FullText,
		CreatedBy:       l.CreatedBy,
		UpdatedBy:       l.UpdatedBy,
		PublishedAt:     l.PublishedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func fromDataModel(row *legislationDatamodel.Legislation) *legislation.Legislation {
	return &legislation.Legislation{
		ID:              row.ID,
		OrganizationID:  row.OrganizationID,
		Title:           row.Title,
		Process:         row.Process,
		Status:          row.Status,
		LegislationType: row.LegislationType,
		EffectiveFrom:   row.EffectiveFrom,
		EffectiveTo:     row.EffectiveTo,
		Jurisdiction:    row.Jurisdiction,
		Municipality:    row.Municipality,
		Description:     row.Description,
		FullText:        row.FullText,
		CreatedBy:       row.CreatedBy,
		UpdatedBy:       row.UpdatedBy,
		PublishedAt:     row.PublishedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
