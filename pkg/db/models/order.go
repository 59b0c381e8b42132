package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/pkg/enums"
	"github.com/qitafauto/qitaf-backend/pkg/types"
)

// Order is one customer purchase. Orders are financial records and are never
// physically deleted; a deleted user leaves the order behind with a null
// user reference.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid" json:"user_id,omitempty"`
	OrderNumber   string              `gorm:"column:order_number;uniqueIndex;not null" json:"order_number"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'" json:"status"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null" json:"payment_method"`

	Email string `gorm:"column:email;not null" json:"email"`
	Phone string `gorm:"column:phone;not null" json:"phone"`

	ShippingAddress types.Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  types.Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(10,2);not null" json:"shipping_cost"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(10,2);not null" json:"tax"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(10,2);not null;default:0" json:"discount"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null" json:"total"`

	Notes             string     `gorm:"column:notes" json:"notes"`
	TrackingNumber    string     `gorm:"column:tracking_number" json:"tracking_number"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery;type:date" json:"estimated_delivery,omitempty"`

	Items    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	History  []OrderHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
	Payments []Payment      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
