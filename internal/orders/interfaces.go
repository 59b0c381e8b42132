package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreateHistory(ctx context.Context, entry *models.OrderHistory) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindDetailByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	CancelIfPending(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
}
