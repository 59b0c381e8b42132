package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/pkg/enums"
)

// Promotion is a discount code with an activation window and optional usage
// cap. IsActive is the stored flag the sweeps maintain; Validity is always
// derived on read so a stale flag never makes an exhausted or out-of-window
// promotion redeemable.
type Promotion struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string             `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Title         string             `gorm:"column:title;not null" json:"title"`
	Description   string             `gorm:"column:description" json:"description"`
	Terms         string             `gorm:"column:terms" json:"terms"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null" json:"discount_type"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null" json:"discount_value"`
	MinPurchase   *decimal.Decimal   `gorm:"column:min_purchase;type:numeric(10,2)" json:"min_purchase,omitempty"`
	MaxDiscount   *decimal.Decimal   `gorm:"column:max_discount;type:numeric(10,2)" json:"max_discount,omitempty"`
	StartDate     time.Time          `gorm:"column:start_date;not null" json:"start_date"`
	EndDate       time.Time          `gorm:"column:end_date;not null" json:"end_date"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	UsageLimit    *int               `gorm:"column:usage_limit" json:"usage_limit,omitempty"`
	UsageCount    int                `gorm:"column:usage_count;not null;default:0" json:"usage_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsValid derives the promotion's redeemability at the given time.
func (p Promotion) IsValid(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate.After(now) {
		return false
	}
	if !p.EndDate.After(now) {
		return false
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return false
	}
	return true
}
