package models

import (
	"time"

	"github.com/google/uuid"
)

// Banner is a scheduled storefront banner. Active is the stored flag kept in
// sync by the hourly/daily sweeps; IsActiveNow is the derived check that
// stays correct even when a sweep has not run yet.
type Banner struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Description  string     `gorm:"column:description" json:"description"`
	CTAText      string     `gorm:"column:cta_text;not null;default:'Shop Now'" json:"cta_text"`
	ImageURL     string     `gorm:"column:image_url;not null" json:"image_url"`
	URL          string     `gorm:"column:url;not null" json:"url"`
	Active       bool       `gorm:"column:active;not null;default:true" json:"active"`
	DisplayOrder int        `gorm:"column:display_order;not null;default:0" json:"display_order"`
	StartDate    *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsActiveNow reports whether the banner should display at the given time.
func (b Banner) IsActiveNow(now time.Time) bool {
	if b.StartDate != nil && b.StartDate.After(now) {
		return false
	}
	if b.EndDate != nil && b.EndDate.Before(now) {
		return false
	}
	return b.Active
}
