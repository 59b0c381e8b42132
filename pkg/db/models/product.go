package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog row. Rating and ReviewCount are aggregates recomputed
// by the catalog service when reviews change, not by save-time hooks.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string          `gorm:"column:sku;uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description" json:"description"`
	Brand       string          `gorm:"column:brand" json:"brand"`
	Category    string          `gorm:"column:category;index" json:"category"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Rating      decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0" json:"rating"`
	ReviewCount int             `gorm:"column:review_count;not null;default:0" json:"review_count"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ProductVariant is a sellable variation of a product (fitment, size, finish).
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	SKU       string          `gorm:"column:sku;uniqueIndex;not null" json:"sku"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Stock     int             `gorm:"column:stock;not null;default:0" json:"stock"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
