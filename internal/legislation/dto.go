package legislation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

// Date accepts "2006-01-02" or RFC 3339 and renders as a calendar date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type CreateLegislationDTO struct {
	Title           string `json:"title"`
	Process         string `json:"process"`
	Status          string `json:"status"`
	LegislationType string `json:"legislation_type"`
	EffectiveFrom   *Date  `json:"effective_from"`
	EffectiveTo     *Date  `json:"effective_to"`
	Jurisdiction    string `json:"jurisdiction"`
	Municipality    string `json:"municipality"`
	Description     string `json:"description"`
	FullText        string `json:"full_text"`
}

func (d *CreateLegislationDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Status = strings.TrimSpace(d.Status)

	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(255)
	v.Field("process", d.Process).MaxLength(255)
	v.Field("status", d.Status).OneOf(Statuses...)
	v.Field("legislation_type", d.LegislationType).MaxLength(100)
	v.Field("jurisdiction", d.Jurisdiction).MaxLength(100)
	v.Field("municipality", d.Municipality).MaxLength(100)
	v.Field("effective_to", d.EffectiveTo).Custom(effectiveRange(d.EffectiveFrom, d.EffectiveTo))
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateLegislationDTO carries a partial update; nil fields are kept.
type UpdateLegislationDTO struct {
	Title           *string `json:"title"`
	Process         *string `json:"process"`
	Status          *string `json:"status"`
	LegislationType *string `json:"legislation_type"`
	EffectiveFrom   *Date   `json:"effective_from"`
	EffectiveTo     *Date   `json:"effective_to"`
	Jurisdiction    *string `json:"jurisdiction"`
	Municipality    *string `json:"municipality"`
	Description     *string `json:"description"`
	FullText        *string `json:"full_text"`
}

func (d *UpdateLegislationDTO) Validate() error {
	v := validation.NewValidator()
	if d.Title != nil {
		title := strings.TrimSpace(*d.Title)
		d.Title = &title
		v.Field("title", title).Required().MaxLength(255)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(Statuses...)
	}
	v.Field("process", d.Process).MaxLength(255)
	v.Field("legislation_type", d.LegislationType).MaxLength(100)
	v.Field("jurisdiction", d.Jurisdiction).MaxLength(100)
	v.Field("municipality", d.Municipality).MaxLength(100)
	v.Field("effective_to", d.EffectiveTo).Custom(effectiveRange(d.EffectiveFrom, d.EffectiveTo))
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ChangesContent reports whether the update touches anything besides status.
func (d UpdateLegislationDTO) ChangesContent() bool {
	return d.Title != nil || d.Process != nil || d.LegislationType != nil ||
		d.EffectiveFrom != nil || d.EffectiveTo != nil || d.Jurisdiction != nil ||
		d.Municipality != nil || d.Description != nil || d.FullText != nil
}

// Apply copies the set fields onto l.
func (d UpdateLegislationDTO) Apply(l *Legislation) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&l.Title, d.Title)
	setString(&l.Process, d.Process)
	setString(&l.Status, d.Status)
	setString(&l.LegislationType, d.LegislationType)
	setString(&l.Jurisdiction, d.Jurisdiction)
	setString(&l.Municipality, d.Municipality)
	setString(&l.Description, d.Description)
	setString(&l.FullText, d.FullText)
	if d.EffectiveFrom != nil {
		l.EffectiveFrom = d.EffectiveFrom.Ptr()
	}
	if d.EffectiveTo != nil {
		l.EffectiveTo = d.EffectiveTo.Ptr()
	}
}

func effectiveRange(from, to *Date) func(interface{}) *internal.AppError {
	return func(interface{}) *internal.AppError {
		if from.Ptr() == nil || to.Ptr() == nil {
			return nil
		}
		if to.Before(from.Time) {
			return internal.NewValidationFieldError("effective_to", "effective_to must not be before effective_from", internal.ErrCodeValidationFailed)
		}
		return nil
	}
}

// ListQuery is the parsed query string of GET /legislations.
type ListQuery struct {
	Page            int
	Limit           int
	Status          string
	LegislationType string
	Jurisdiction    string
	Search          string
}

func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Status == "all" {
		q.Status = ""
	}
	if q.LegislationType == "all" {
		q.LegislationType = ""
	}
	q.Search = strings.TrimSpace(q.Search)
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type Page struct {
	Legislations []*Legislation `json:"legislations"`
	Pagination   Pagination     `json:"pagination"`
}
