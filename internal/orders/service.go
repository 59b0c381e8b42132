package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db"
	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/pagination"
)

const (
	historyNoteCreated   = "Order created"
	historyNoteCancelled = "Order cancelled by user."
	historyNotePaid      = "Payment completed successfully."
	historyNoteExpired   = "Order automatically cancelled due to inactivity."

	orderNumberTimeLayout = "20060102150405"
	orderNumberAttempts   = 3

	notifySendTimeout = 15 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier delivers order emails. The service dispatches them asynchronously
// after commit; failures are logged and never roll back a committed state
// change.
type Notifier interface {
	OrderConfirmation(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus, notes string) error
	PaymentReceipt(ctx context.Context, order *models.Order, payment *models.Payment) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) error
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) error
	ExpireAbandoned(ctx context.Context, olderThan time.Time) (int, error)
	Get(ctx context.Context, input GetInput) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	History(ctx context.Context, input GetInput) ([]models.OrderHistory, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger

	mailWG sync.WaitGroup
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var created *models.Order
	run := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, subtotal, err := s.buildItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		total := subtotal.Add(input.ShippingCost).Add(input.Tax).Sub(input.Discount)
		if total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
		}

		order := &models.Order{
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   input.PaymentMethod,
			Email:           input.Email,
			Phone:           input.Phone,
			ShippingAddress: input.ShippingAddress.Normalize(),
			BillingAddress:  input.BillingAddress.Normalize(),
			Subtotal:        subtotal,
			ShippingCost:    input.ShippingCost,
			Tax:             input.Tax,
			Discount:        input.Discount,
			Total:           total,
			Notes:           input.Notes,
		}

		if err := s.persistWithNumber(ctx, repo, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		entry := &models.OrderHistory{
			OrderID: order.ID,
			Status:  enums.OrderStatusPending,
			Notes:   historyNoteCreated,
		}
		if err := repo.CreateHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order history")
		}
		order.History = []models.OrderHistory{*entry}

		created = order
		return nil
	}

	if err := s.tx.WithTx(ctx, run); err != nil {
		return nil, err
	}

	s.notifyAsync(ctx, created.OrderNumber, "order confirmation email failed",
		func(mailCtx context.Context) error {
			return s.notifier.OrderConfirmation(mailCtx, created)
		})
	return created, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.OrderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOwned(ctx, repo, input.OrderNumber, input.ActorUserID, input.ActorStaff)
		if err != nil {
			return err
		}
		if !order.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status": enums.OrderStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		notes := input.Notes
		if notes == "" {
			notes = historyNoteCancelled
		}
		entry := &models.OrderHistory{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Notes:   notes,
		}
		if err := repo.CreateHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cancel history")
		}
		return nil
	})
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var recorded *models.Payment
	var paid *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOwned(ctx, repo, input.OrderNumber, input.ActorUserID, input.ActorStaff)
		if err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}

		method := input.Method
		if method == "" {
			method = order.PaymentMethod
		}
		if !method.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}

		payment := &models.Payment{
			OrderID:       order.ID,
			Amount:        order.Total,
			PaymentMethod: method,
			TransactionID: input.TransactionID,
			Status:        input.Status,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		switch input.Status {
		case enums.PaymentRecordStatusCompleted:
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
				"payment_status": enums.PaymentStatusPaid,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
			entry := &models.OrderHistory{
				OrderID: order.ID,
				Status:  order.Status,
				Notes:   historyNotePaid,
			}
			if err := repo.CreateHistory(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment history")
			}
			paid = order
		case enums.PaymentRecordStatusFailed:
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
				"payment_status": enums.PaymentStatusFailed,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order payment failed")
			}
		}

		recorded = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid != nil {
		s.notifyAsync(ctx, paid.OrderNumber, "payment receipt email failed",
			func(mailCtx context.Context) error {
				return s.notifier.PaymentReceipt(mailCtx, paid, recorded)
			})
	}
	return recorded, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) error {
	if input.OrderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var (
		updated  *models.Order
		previous enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByNumber(ctx, input.OrderNumber)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Same status is a no-op: no history row, no mail.
		if order.Status == input.Status {
			return nil
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition from %s to %s", order.Status, input.Status))
		}

		updates := map[string]any{"status": input.Status}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
		}
		if input.EstimatedDelivery != nil {
			updates["estimated_delivery"] = *input.EstimatedDelivery
		}
		if input.Status == enums.OrderStatusRefunded {
			updates["payment_status"] = enums.PaymentStatusRefunded
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		entry := &models.OrderHistory{
			OrderID: order.ID,
			Status:  input.Status,
			Notes:   input.Notes,
		}
		if err := repo.CreateHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create status history")
		}

		previous = order.Status
		order.Status = input.Status
		if input.TrackingNumber != nil {
			order.TrackingNumber = *input.TrackingNumber
		}
		if input.EstimatedDelivery != nil {
			order.EstimatedDelivery = input.EstimatedDelivery
		}
		updated = order
		return nil
	})
	if err != nil {
		return err
	}

	if updated != nil {
		s.notifyAsync(ctx, updated.OrderNumber, "order status mail failed",
			func(mailCtx context.Context) error {
				return s.notifier.OrderStatusChanged(mailCtx, updated, previous, input.Notes)
			})
	}
	return nil
}

// notifyAsync fires the mail off the request path once the transaction has
// committed. The context is detached so a request finishing (or timing out)
// cannot cancel a send for a change that already landed.
func (s *service) notifyAsync(ctx context.Context, orderNumber string, failureMsg string, send func(ctx context.Context) error) {
	mailCtx := s.logg.WithOrderNumber(context.WithoutCancel(ctx), orderNumber)
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		sendCtx, cancel := context.WithTimeout(mailCtx, notifySendTimeout)
		defer cancel()
		if err := send(sendCtx); err != nil {
			s.logg.Error(mailCtx, failureMsg, err)
		}
	}()
}

func (s *service) ExpireAbandoned(ctx context.Context, olderThan time.Time) (int, error) {
	pending, err := s.repo.FindPendingOrdersBefore(ctx, olderThan)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load abandoned orders")
	}

	expired := 0
	var errs error
	for i := range pending {
		order := pending[i]
		cancelled := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			// The candidate list is a snapshot; the guarded update loses to
			// any transition committed since, and the order is left alone.
			ok, err := repo.CancelIfPending(ctx, order.ID)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if err := repo.CreateHistory(ctx, &models.OrderHistory{
				OrderID: order.ID,
				Status:  enums.OrderStatusCancelled,
				Notes:   historyNoteExpired,
			}); err != nil {
				return err
			}
			cancelled = true
			return nil
		})
		if err != nil {
			orderCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
			s.logg.Error(orderCtx, "abandoned order expiry failed", err)
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.OrderNumber, err))
			continue
		}
		if cancelled {
			expired++
		}
	}
	return expired, errs
}

func (s *service) Get(ctx context.Context, input GetInput) (*models.Order, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	order, err := s.repo.FindDetailByNumber(ctx, input.OrderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order detail")
	}
	if err := checkOwnership(order, input.ActorUserID, input.ActorStaff); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) History(ctx context.Context, input GetInput) ([]models.OrderHistory, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	order, err := s.findOwned(ctx, s.repo, input.OrderNumber, input.ActorUserID, input.ActorStaff)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListHistory(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return entries, nil
}

func (s *service) buildItems(ctx context.Context, repo Repository, inputs []CreateItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	productIDs := make([]uuid.UUID, 0, len(inputs))
	variantIDs := make([]uuid.UUID, 0)
	for _, in := range inputs {
		productIDs = append(productIDs, in.ProductID)
		if in.VariantID != nil {
			variantIDs = append(variantIDs, *in.VariantID)
		}
	}

	products, err := repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	variants, err := repo.FindVariants(ctx, variantIDs)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}
	variantByID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, v := range variants {
		variantByID[v.ID] = v
	}

	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := decimal.Zero
	for _, in := range inputs {
		product, ok := productByID[in.ProductID]
		if !ok || !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s not available", in.ProductID))
		}

		price := product.Price
		if in.VariantID != nil {
			variant, ok := variantByID[*in.VariantID]
			if !ok || variant.ProductID != in.ProductID || !variant.IsActive {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("variant %s not available", *in.VariantID))
			}
			price = variant.Price
		}

		item := models.OrderItem{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
			Price:     price,
		}
		item.ComputeTotal()
		items = append(items, item)
		subtotal = subtotal.Add(item.Total)
	}
	return items, subtotal, nil
}

// persistWithNumber allocates the human-facing order number and retries with
// a random suffix when two orders land on the same second.
func (s *service) persistWithNumber(ctx context.Context, repo Repository, order *models.Order) error {
	base := "ORD-" + time.Now().UTC().Format(orderNumberTimeLayout)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = base
		if attempt > 0 {
			order.OrderNumber = fmt.Sprintf("%s-%s", base, uuid.NewString()[:4])
		}
		_, err := repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "idx_orders_order_number") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique order number")
}

func (s *service) findOwned(ctx context.Context, repo Repository, orderNumber string, actorUserID *uuid.UUID, staff bool) (*models.Order, error) {
	order, err := repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := checkOwnership(order, actorUserID, staff); err != nil {
		return nil, err
	}
	return order, nil
}

func checkOwnership(order *models.Order, actorUserID *uuid.UUID, staff bool) error {
	if staff {
		return nil
	}
	if actorUserID == nil || order.UserID == nil || *order.UserID != *actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return nil
}

func validateCreateInput(input CreateInput) error {
	if input.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.Phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
	}
	if input.ShippingCost.IsNegative() || input.Tax.IsNegative() || input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "monetary fields cannot be negative")
	}
	if input.ShippingAddress.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	return nil
}
