package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
)

func TestValidateItemRefund(t *testing.T) {
	item := entity.OrderItem{ID: uuid.New(), Quantity: 3, PriceAtSale: 1000}
	order := &entity.Order{
		ID:          uuid.New(),
		OrderStatus: enum.OrderStatusComplete,
		Items:       []entity.OrderItem{item},
	}

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		v := NewRefundValidator(&fakeRefundItemRepo{})
		if ok, _ := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 0); ok {
			t.Error("zero quantity passed validation")
		}
	})

	t.Run("rejects quantity above ordered", func(t *testing.T) {
		v := NewRefundValidator(&fakeRefundItemRepo{})
		ok, reason := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 4)
		if ok {
			t.Fatal("over-ordered quantity passed validation")
		}
		if !strings.Contains(reason, "only 3 ordered") {
			t.Errorf("reason = %q, want mention of ordered quantity", reason)
		}
	})

	t.Run("rejects cancelled order", func(t *testing.T) {
		cancelled := *order
		cancelled.OrderStatus = enum.OrderStatusCancel
		v := NewRefundValidator(&fakeRefundItemRepo{})
		if ok, _ := v.ValidateItemRefund(testCtx(), &cancelled, &order.Items[0], 1); ok {
			t.Error("cancelled order passed validation")
		}
	})

	t.Run("enforces cumulative cap across prior refunds", func(t *testing.T) {
		repo := &fakeRefundItemRepo{rows: []entity.RefundItem{
			{OrderItemID: item.ID, QuantityRefunded: 2},
		}}
		v := NewRefundValidator(repo)

		if ok, _ := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 1); !ok {
			t.Error("refunding the last remaining unit should pass")
		}

		ok, reason := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 2)
		if ok {
			t.Fatal("refund past the cumulative cap passed validation")
		}
		if !strings.Contains(reason, "only 1 of 3 remain refundable") {
			t.Errorf("reason = %q, want remaining-quantity message", reason)
		}
	})

	t.Run("counts refunds across multiple transactions", func(t *testing.T) {
		repo := &fakeRefundItemRepo{rows: []entity.RefundItem{
			{RefundTransactionID: uuid.New(), OrderItemID: item.ID, QuantityRefunded: 1},
			{RefundTransactionID: uuid.New(), OrderItemID: item.ID, QuantityRefunded: 2},
		}}
		v := NewRefundValidator(repo)
		if ok, _ := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 1); ok {
			t.Error("fully refunded line passed validation")
		}
	})

	t.Run("accepts a valid refund", func(t *testing.T) {
		v := NewRefundValidator(&fakeRefundItemRepo{})
		ok, reason := v.ValidateItemRefund(testCtx(), order, &order.Items[0], 3)
		if !ok {
			t.Errorf("valid refund rejected: %s", reason)
		}
	})
}

func TestValidateRefundWindow(t *testing.T) {
	v := NewRefundValidator(&fakeRefundItemRepo{})

	t.Run("accepts an order inside the window", func(t *testing.T) {
		order := &entity.Order{CreatedAt: time.Now().AddDate(0, 0, -10)}
		if ok, _ := v.ValidateRefundWindow(order, 30); !ok {
			t.Error("order inside window was rejected")
		}
	})

	t.Run("rejects an order past the window", func(t *testing.T) {
		order := &entity.Order{CreatedAt: time.Now().AddDate(0, 0, -31)}
		ok, reason := v.ValidateRefundWindow(order, 30)
		if ok {
			t.Fatal("expired order passed validation")
		}
		if !strings.Contains(reason, "30-day") {
			t.Errorf("reason = %q, want mention of the window length", reason)
		}
	})

	t.Run("zero window means no limit", func(t *testing.T) {
		order := &entity.Order{CreatedAt: time.Now().AddDate(-5, 0, 0)}
		if ok, _ := v.ValidateRefundWindow(order, 0); !ok {
			t.Error("unlimited window rejected an old order")
		}
	})
}

func TestValidatePaymentRefund(t *testing.T) {
	v := NewRefundValidator(&fakeRefundItemRepo{})

	saleTx := entity.PaymentTransaction{
		ID:     uuid.New(),
		Type:   enum.TransactionTypeSale,
		Status: enum.TransactionStatusSuccessful,
		Amount: 1000,
	}

	cases := []struct {
		name    string
		payment entity.Payment
		wantOK  bool
	}{
		{
			name:    "paid with successful sale",
			payment: entity.Payment{Status: enum.PaymentStatusPaid, Transactions: []entity.PaymentTransaction{saleTx}},
			wantOK:  true,
		},
		{
			name:    "partially refunded accepts more refunds",
			payment: entity.Payment{Status: enum.PaymentStatusPartiallyRefunded, Transactions: []entity.PaymentTransaction{saleTx}},
			wantOK:  true,
		},
		{
			name:    "unpaid",
			payment: entity.Payment{Status: enum.PaymentStatusUnpaid, Transactions: []entity.PaymentTransaction{saleTx}},
			wantOK:  false,
		},
		{
			name:    "already fully refunded",
			payment: entity.Payment{Status: enum.PaymentStatusRefunded, Transactions: []entity.PaymentTransaction{saleTx}},
			wantOK:  false,
		},
		{
			name:    "failed",
			payment: entity.Payment{Status: enum.PaymentStatusFailed, Transactions: []entity.PaymentTransaction{saleTx}},
			wantOK:  false,
		},
		{
			name:    "paid but no successful sale transaction",
			payment: entity.Payment{Status: enum.PaymentStatusPaid},
			wantOK:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := v.ValidatePaymentRefund(&tc.payment)
			if ok != tc.wantOK {
				t.Errorf("got ok=%v (%s), want %v", ok, reason, tc.wantOK)
			}
		})
	}
}
