package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qitafauto/qitaf-backend/pkg/enums"
)

// OrderHistory is the append-only audit trail of an order's status changes.
// Rows are never updated or deleted and are read newest-first.
type OrderHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null" json:"status"`
	Notes     string            `gorm:"column:notes" json:"notes"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName keeps the singular table name used by the schema.
func (OrderHistory) TableName() string { return "order_history" }
