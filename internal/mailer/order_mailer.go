package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
)

// OrderMailer composes the customer-facing order emails and hands them to a
// Sender. It implements the notifier interfaces the order service and the
// API controllers expect.
type OrderMailer struct {
	sender    Sender
	storeName string
}

// NewOrderMailer builds an OrderMailer for the given store.
func NewOrderMailer(sender Sender, storeName string) *OrderMailer {
	if storeName == "" {
		storeName = "Qitaf Auto Parts"
	}
	return &OrderMailer{sender: sender, storeName: storeName}
}

// OrderConfirmation sends the post-creation confirmation email.
func (m *OrderMailer) OrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil || order.Email == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order at %s.\n\n", m.storeName)
	fmt.Fprintf(&b, "Order number: %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Order total: %s\n", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment method: %s\n", order.PaymentMethod)
	if len(order.Items) > 0 {
		b.WriteString("\nItems:\n")
		for _, item := range order.Items {
			fmt.Fprintf(&b, "  %d x %s = %s\n", item.Quantity, item.Price.StringFixed(2), item.Total.StringFixed(2))
		}
	}

	return m.sender.Send(ctx, Message{
		To:      order.Email,
		Subject: fmt.Sprintf("%s: order %s confirmed", m.storeName, order.OrderNumber),
		Body:    b.String(),
	})
}

// OrderStatusChanged sends the post-commit status update email.
func (m *OrderMailer) OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus, notes string) error {
	if order == nil || order.Email == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your order %s moved from %s to %s.\n", order.OrderNumber, previous, order.Status)
	if order.TrackingNumber != "" {
		fmt.Fprintf(&b, "Tracking number: %s\n", order.TrackingNumber)
	}
	if notes != "" {
		fmt.Fprintf(&b, "\n%s\n", notes)
	}

	return m.sender.Send(ctx, Message{
		To:      order.Email,
		Subject: fmt.Sprintf("%s: order %s is now %s", m.storeName, order.OrderNumber, order.Status),
		Body:    b.String(),
	})
}

// PaymentReceipt sends the receipt after a completed payment record.
func (m *OrderMailer) PaymentReceipt(ctx context.Context, order *models.Order, payment *models.Payment) error {
	if order == nil || payment == nil || order.Email == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "We received your payment for order %s.\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "Amount: %s\n", payment.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Method: %s\n", payment.PaymentMethod)
	if payment.TransactionID != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", payment.TransactionID)
	}

	return m.sender.Send(ctx, Message{
		To:      order.Email,
		Subject: fmt.Sprintf("%s: payment received for order %s", m.storeName, order.OrderNumber),
		Body:    b.String(),
	})
}
