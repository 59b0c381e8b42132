package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/pkg/enums"
	"github.com/qitafauto/qitaf-backend/pkg/types"
)

// CreateItemInput is one requested order line.
type CreateItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// CreateInput carries everything needed to place an order. Item prices are
// never accepted from the caller; the service snapshots them from the
// catalog inside the creation transaction.
type CreateInput struct {
	UserID          *uuid.UUID
	Email           string
	Phone           string
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.Address
	BillingAddress  types.Address
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	Notes           string
	Items           []CreateItemInput
}

// CancelInput identifies the order and the actor requesting cancellation.
type CancelInput struct {
	OrderNumber string
	ActorUserID *uuid.UUID
	ActorStaff  bool
	Notes       string
}

// RecordPaymentInput captures a payment attempt reported for an order.
// Amount is intentionally absent: it always mirrors the order total.
type RecordPaymentInput struct {
	OrderNumber   string
	ActorUserID   *uuid.UUID
	ActorStaff    bool
	Method        enums.PaymentMethod
	TransactionID string
	Status        enums.PaymentRecordStatus
}

// UpdateStatusInput is the staff-facing status transition request.
type UpdateStatusInput struct {
	OrderNumber       string
	ActorUserID       uuid.UUID
	Status            enums.OrderStatus
	Notes             string
	TrackingNumber    *string
	EstimatedDelivery *time.Time
}

// GetInput scopes a single-order read to its owner (staff see everything).
type GetInput struct {
	OrderNumber string
	ActorUserID *uuid.UUID
	ActorStaff  bool
}

// ListFilters describe the inputs supported by the order list.
type ListFilters struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderSummary exposes the aggregated fields returned in the list.
type OrderSummary struct {
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Total         decimal.Decimal     `json:"total"`
	TotalItems    int                 `json:"total_items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
