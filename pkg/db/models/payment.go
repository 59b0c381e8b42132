package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/pkg/enums"
)

// Payment is one recorded payment attempt against an order. Amount always
// mirrors the order total at recording time; it is never caller-supplied.
type Payment struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID       uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Amount        decimal.Decimal           `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	PaymentMethod enums.PaymentMethod       `gorm:"column:payment_method;type:payment_method;not null" json:"payment_method"`
	TransactionID string                    `gorm:"column:transaction_id" json:"transaction_id"`
	Status        enums.PaymentRecordStatus `gorm:"column:status;type:payment_record_status;not null" json:"status"`
	PaymentDate   time.Time                 `gorm:"column:payment_date;autoCreateTime" json:"payment_date"`
}
