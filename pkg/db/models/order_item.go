package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. Price is a snapshot taken at purchase
// time, not a live reference to the product's current price. Products and
// variants referenced by an item cannot be deleted (RESTRICT).
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;constraint:OnDelete:RESTRICT" json:"product_id"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid;constraint:OnDelete:RESTRICT" json:"variant_id,omitempty"`

	Quantity int             `gorm:"column:quantity;not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
}

// ComputeTotal derives the line total from the price snapshot and quantity.
// Callers apply it when price or quantity change, never on unrelated writes.
func (i *OrderItem) ComputeTotal() {
	i.Total = i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
