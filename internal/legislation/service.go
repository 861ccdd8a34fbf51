package legislation

import (
	"context"
	"log/slog"
	"math"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/core/events"
)

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns one page of legislation. An empty organizationID lists
// across organizations.
func (s *Service) List(ctx context.Context, organizationID string, query ListQuery) (*Page, error) {
	query.Normalize()

	items, total, err := s.repo.List(ctx, Filter{
		OrganizationID:  organizationID,
		Status:          query.Status,
		LegislationType: query.LegislationType,
		Jurisdiction:    query.Jurisdiction,
		Search:          query.Search,
		Limit:           query.Limit,
		Offset:          (query.Page - 1) * query.Limit,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list legislation", "error", err, "organization_id", organizationID)
		return nil, internal.NewInternalError("Failed to fetch legislation", err)
	}
	if items == nil {
		items = []*Legislation{}
	}

	return &Page{
		Legislations: items,
		Pagination: Pagination{
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, organizationID, id string) (*Legislation, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get legislation", "error", err, "legislation_id", id)
		return nil, internal.NewInternalError("Failed to fetch legislation", err)
	}
	if l == nil || !belongsTo(l, organizationID) {
		return nil, internal.ErrLegislationNotFound
	}
	return l, nil
}

func (s *Service) Create(ctx context.Context, organizationID string, userID int64, dto CreateLegislationDTO) (*Legislation, error) {
	if err := dto.Validate(); err != nil {
		s.logger.WarnContext(ctx, "legislation validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	l := NewLegislation(organizationID, userID, dto)
	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to create legislation", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("Failed to create legislation", err)
	}

	s.logger.InfoContext(ctx, "legislation created",
		"legislation_id", l.ID,
		"organization_id", organizationID,
		"user_id", userID,
		"status", l.Status)
	s.publish(ctx, l, userID, "created", "Created legislation "+l.Title)
	return l, nil
}

// Update applies a partial update. Published legislation only accepts a
// status change.
func (s *Service) Update(ctx context.Context, organizationID, id string, userID int64, dto UpdateLegislationDTO) (*Legislation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	l, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if l.IsPublished() && dto.ChangesContent() {
		s.logger.WarnContext(ctx, "refused edit of published legislation", "legislation_id", id, "user_id", userID)
		return nil, internal.ErrLegislationNotEditable
	}

	wasPublished := l.IsPublished()
	dto.Apply(l)
	if l.IsPublished() && !wasPublished {
		l.Publish(userID)
	}
	l.UpdatedBy = &userID

	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to update legislation", "error", err, "legislation_id", id)
		return nil, internal.NewInternalError("Failed to update legislation", err)
	}

	s.publish(ctx, l, userID, "updated", "Updated legislation "+l.Title)
	return l, nil
}

func (s *Service) Delete(ctx context.Context, organizationID, id string, userID int64) error {
	l, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, l.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete legislation", "error", err, "legislation_id", id)
		return internal.NewInternalError("Failed to delete legislation", err)
	}

	s.logger.InfoContext(ctx, "legislation deleted", "legislation_id", id, "user_id", userID)
	s.publish(ctx, l, userID, "deleted", "Deleted legislation "+l.Title)
	return nil
}

// Publish puts the legislation in force. Publishing twice is a no-op.
func (s *Service) Publish(ctx context.Context, organizationID, id string, userID int64) (*Legislation, error) {
	l, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if l.IsPublished() {
		return l, nil
	}

	l.Publish(userID)
	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish legislation", "error", err, "legislation_id", id)
		return nil, internal.NewInternalError("Failed to publish legislation", err)
	}

	s.logger.InfoContext(ctx, "legislation published", "legislation_id", id, "user_id", userID)
	s.publish(ctx, l, userID, "published", "Published legislation "+l.Title)
	return l, nil
}

func (s *Service) publish(ctx context.Context, l *Legislation, userID int64, action, message string) {
	if s.publisher == nil || l.OrganizationID == nil {
		return
	}
	event := events.NewOrganizationEvent(*l.OrganizationID, userID, events.EntityLegislation, l.ID, action, message).
		WithChanges(nil, map[string]interface{}{"title": l.Title, "status": l.Status})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish legislation event", "error", err, "action", action)
	}
}

func belongsTo(l *Legislation, organizationID string) bool {
	if organizationID == "" {
		return true
	}
	return l.OrganizationID != nil && *l.OrganizationID == organizationID
}
