package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
)

// RefundValidator holds the business-rule gates that run before any refund
// calculation or write. Its methods never mutate state; they return (false,
// reason) with a human-readable reason on rejection.
type RefundValidator struct {
	refundItemRepo repository.RefundItemRepository
}

// NewRefundValidator creates a new refund validator
func NewRefundValidator(refundItemRepo repository.RefundItemRepository) *RefundValidator {
	return &RefundValidator{refundItemRepo: refundItemRepo}
}

// ValidateItemRefund checks that quantity units of item can still be
// refunded. The caller is responsible for holding the line's row lock when
// the result gates a write; the cumulative check reads committed RefundItem
// rows for the line.
func (v *RefundValidator) ValidateItemRefund(ctx context.Context, order *entity.Order, item *entity.OrderItem, quantity int) (bool, string) {
	if quantity <= 0 {
		return false, "Refund quantity must be positive"
	}
	if quantity > item.Quantity {
		return false, fmt.Sprintf("Cannot refund %d units - only %d ordered", quantity, item.Quantity)
	}
	if !order.OrderStatus.Refundable() {
		return false, "Cannot refund items on a cancelled order"
	}

	alreadyRefunded, err := v.refundItemRepo.SumRefundedQuantity(ctx, item.ID)
	if err != nil {
		return false, "Failed to read prior refunds for order item"
	}
	remaining := item.Quantity - alreadyRefunded
	if quantity > remaining {
		return false, fmt.Sprintf(
			"Cannot refund %d units - only %d of %d remain refundable", quantity, remaining, item.Quantity)
	}

	return true, ""
}

// ValidateRefundWindow checks that the order is still inside the
// tenant's refund window. windowDays <= 0 means no limit.
func (v *RefundValidator) ValidateRefundWindow(order *entity.Order, windowDays int) (bool, string) {
	if windowDays <= 0 {
		return true, ""
	}
	cutoff := order.CreatedAt.AddDate(0, 0, windowDays)
	if time.Now().After(cutoff) {
		return false, fmt.Sprintf("Order is outside the %d-day refund window", windowDays)
	}
	return true, ""
}

// ValidatePaymentRefund checks that the payment can accept a refund at all.
// Transactions must already be loaded on the payment.
func (v *RefundValidator) ValidatePaymentRefund(payment *entity.Payment) (bool, string) {
	switch payment.Status {
	case enum.PaymentStatusUnpaid:
		return false, "Payment has not been captured"
	case enum.PaymentStatusRefunded:
		return false, "Payment has already been fully refunded"
	case enum.PaymentStatusFailed:
		return false, "Payment is in a failed state"
	}
	if payment.LatestSuccessfulTransaction(enum.TransactionTypeSale) == nil {
		return false, "Payment has no successful transaction to refund against"
	}
	return true, ""
}
