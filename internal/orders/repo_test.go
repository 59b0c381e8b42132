package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
	"github.com/qitafauto/qitaf-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  brand TEXT,
  category TEXT,
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  rating TEXT NOT NULL DEFAULT '0',
  review_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  shipping_name TEXT, shipping_address TEXT, shipping_city TEXT,
  shipping_country TEXT, shipping_postal_code TEXT,
  billing_name TEXT, billing_address TEXT, billing_city TEXT,
  billing_country TEXT, billing_postal_code TEXT,
  subtotal TEXT NOT NULL,
  shipping_cost TEXT NOT NULL,
  tax TEXT NOT NULL,
  discount TEXT NOT NULL DEFAULT '0',
  total TEXT NOT NULL,
  notes TEXT,
  tracking_number TEXT,
  estimated_delivery DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  total TEXT NOT NULL
);`
	history := `
CREATE TABLE IF NOT EXISTS order_history (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  transaction_id TEXT,
  status TEXT NOT NULL,
  payment_date DATETIME
);`
	for _, ddl := range []string{products, variants, orders, items, history, payments} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"payments", "order_history", "order_items", "orders", "product_variants", "products"} {
			db.Exec("DELETE FROM " + table)
		}
	})
	return db
}

func insertOrder(t *testing.T, repo Repository, number string, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()

	userID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        &userID,
		OrderNumber:   number,
		Status:        status,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCreditCard,
		Email:         "buyer@example.com",
		Phone:         "+96650000000",
		Subtotal:      decimal.RequireFromString("100.00"),
		ShippingCost:  decimal.RequireFromString("10.00"),
		Tax:           decimal.RequireFromString("15.00"),
		Discount:      decimal.Zero,
		Total:         decimal.RequireFromString("125.00"),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	_, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	return order
}

func TestRepoCreateAndFindDetail(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, repo, "ORD-20250901090000", enums.OrderStatusPending, time.Now())

	productID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, sku, name, price, is_active) VALUES (?, ?, ?, ?, 1)`,
		productID, "SKU-1", "Oil Filter", "50.00",
	).Error)

	items := []models.OrderItem{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: productID,
		Quantity:  2,
		Price:     decimal.RequireFromString("50.00"),
		Total:     decimal.RequireFromString("100.00"),
	}}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	require.NoError(t, repo.CreateHistory(ctx, &models.OrderHistory{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  enums.OrderStatusPending,
		Notes:   "Order created",
	}))

	detail, err := repo.FindDetailByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1)
	assert.Len(t, detail.History, 1)
	assert.Equal(t, order.ID, detail.ID)
	assert.True(t, detail.Total.Equal(decimal.RequireFromString("125.00")))
}

func TestRepoFindByNumberMissing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByNumber(context.Background(), "ORD-unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoUpdateOrderAndHistoryOrdering(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, repo, "ORD-20250901091500", enums.OrderStatusPending, time.Now())

	require.NoError(t, repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":          enums.OrderStatusProcessing,
		"tracking_number": "TRK-7",
	}))

	older := &models.OrderHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    enums.OrderStatusPending,
		Notes:     "Order created",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &models.OrderHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    enums.OrderStatusProcessing,
		Notes:     "Processing",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateHistory(ctx, older))
	require.NoError(t, repo.CreateHistory(ctx, newer))

	reloaded, err := repo.FindByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
	assert.Equal(t, "TRK-7", reloaded.TrackingNumber)

	entries, err := repo.ListHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Processing", entries[0].Notes)
	assert.Equal(t, "Order created", entries[1].Notes)
}

func TestRepoFindPendingOrdersBefore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	stale := insertOrder(t, repo, "ORD-20250810120000", enums.OrderStatusPending, time.Now().Add(-10*24*time.Hour))
	insertOrder(t, repo, "ORD-20250901093000", enums.OrderStatusPending, time.Now())
	insertOrder(t, repo, "ORD-20250810130000", enums.OrderStatusShipped, time.Now().Add(-10*24*time.Hour))

	pending, err := repo.FindPendingOrdersBefore(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stale.OrderNumber, pending[0].OrderNumber)
}

func TestRepoCancelIfPendingGuardsStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := insertOrder(t, repo, "ORD-20250810140000", enums.OrderStatusPending, time.Now().Add(-10*24*time.Hour))
	shipped := insertOrder(t, repo, "ORD-20250810150000", enums.OrderStatusShipped, time.Now().Add(-10*24*time.Hour))

	ok, err := repo.CancelIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CancelIfPending(ctx, shipped.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Already cancelled rows lose the guard too.
	ok, err = repo.CancelIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByNumber(ctx, pending.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)

	untouched, err := repo.FindByNumber(ctx, shipped.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, untouched.Status)
}

func TestRepoListOrdersFiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		insertOrder(t, repo, "ORD-2025090108000"+string(rune('0'+i)), enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	shipped := insertOrder(t, repo, "ORD-20250901084500", enums.OrderStatusShipped, base.Add(30*time.Minute))

	status := enums.OrderStatusShipped
	list, err := repo.ListOrders(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, shipped.OrderNumber, list.Orders[0].OrderNumber)

	page, err := repo.ListOrders(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.ListOrders(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 2)
	assert.Empty(t, rest.NextCursor)
	assert.NotEqual(t, page.Orders[0].OrderNumber, rest.Orders[0].OrderNumber)
}

func TestRepoCreatePayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, repo, "ORD-20250901095000", enums.OrderStatusPending, time.Now())

	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Amount:        order.Total,
		PaymentMethod: enums.PaymentMethodBankTransfer,
		TransactionID: "tx-1",
		Status:        enums.PaymentRecordStatusCompleted,
	}
	_, err := repo.CreatePayment(ctx, payment)
	require.NoError(t, err)

	detail, err := repo.FindDetailByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, detail.Payments, 1)
	assert.True(t, detail.Payments[0].Amount.Equal(order.Total))
}
