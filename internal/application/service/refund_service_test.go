package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
)

type refundFixture struct {
	svc         *RefundService
	paymentRepo *fakePaymentRepo
	txRepo      *fakeTransactionRepo
	orderRepo   *fakeOrderRepo
	itemRepo    *fakeOrderItemRepo
	refundItems *fakeRefundItemRepo
	auditLogs   *fakeAuditLogRepo
	tenants     *fakeTenantSource
	payment     *entity.Payment
	order       *entity.Order
	saleTx      *entity.PaymentTransaction
}

// newRefundFixture wires a RefundService over in-memory fakes with a paid
// two-line order: $10 + $20 subtotal, $4.80 tax, $5 tip, $39.80 captured.
func newRefundFixture() *refundFixture {
	f := &refundFixture{
		paymentRepo: newFakePaymentRepo(),
		txRepo:      &fakeTransactionRepo{},
		orderRepo:   newFakeOrderRepo(),
		itemRepo:    newFakeOrderItemRepo(),
		refundItems: &fakeRefundItemRepo{},
		auditLogs:   &fakeAuditLogRepo{},
		tenants:     newFakeTenantSource(),
	}

	orderID := uuid.New()
	f.order = &entity.Order{
		ID:          orderID,
		TenantID:    testTenantID,
		OrderStatus: enum.OrderStatusComplete,
		CreatedAt:   time.Now(),
		SubTotal:    3000,
		TaxTotal:    480,
		GrandTotal:  3480,
		Currency:    "USD",
		Items: []entity.OrderItem{
			{ID: uuid.New(), OrderID: orderID, Quantity: 1, PriceAtSale: 1000, TaxAmount: 160},
			{ID: uuid.New(), OrderID: orderID, Quantity: 1, PriceAtSale: 2000, TaxAmount: 320},
		},
	}
	f.orderRepo.orders[orderID] = f.order
	for i := range f.order.Items {
		f.itemRepo.items[f.order.Items[i].ID] = &f.order.Items[i]
	}

	paymentID := uuid.New()
	f.saleTx = &entity.PaymentTransaction{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		PaymentID: paymentID,
		Type:      enum.TransactionTypeSale,
		Status:    enum.TransactionStatusSuccessful,
		Amount:    3980,
		Tip:       500,
	}
	f.payment = &entity.Payment{
		ID:           paymentID,
		TenantID:     testTenantID,
		OrderID:      orderID,
		Status:       enum.PaymentStatusPaid,
		Currency:     "USD",
		Transactions: []entity.PaymentTransaction{*f.saleTx},
	}
	f.paymentRepo.payments[paymentID] = f.payment

	f.svc = NewRefundService(
		fakeUnitOfWork{},
		f.paymentRepo,
		f.txRepo,
		f.orderRepo,
		f.itemRepo,
		f.refundItems,
		f.auditLogs,
		f.tenants,
		NewRefundCalculator(),
		NewRefundValidator(f.refundItems),
	)
	return f
}

func TestCalculateRefund(t *testing.T) {
	t.Run("previews without writing", func(t *testing.T) {
		f := newRefundFixture()
		items := []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}}

		first, err := f.svc.CalculateRefund(testCtx(), f.payment.ID, items, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := f.svc.CalculateRefund(testCtx(), f.payment.ID, items, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if first.GrandTotal != second.GrandTotal {
			t.Errorf("repeated previews differ: %d vs %d", first.GrandTotal, second.GrandTotal)
		}
		if len(f.txRepo.created) != 0 {
			t.Errorf("preview created %d transactions", len(f.txRepo.created))
		}
		if len(f.refundItems.rows) != 0 {
			t.Errorf("preview created %d refund items", len(f.refundItems.rows))
		}
		if len(f.auditLogs.rows) != 0 {
			t.Errorf("preview created %d audit rows", len(f.auditLogs.rows))
		}
	})

	t.Run("rejects unknown payment", func(t *testing.T) {
		f := newRefundFixture()
		if _, err := f.svc.CalculateRefund(testCtx(), uuid.New(), nil, nil); err == nil {
			t.Fatal("expected error for unknown payment")
		}
	})
}

func TestProcessRefund(t *testing.T) {
	t.Run("persists transaction, items, audit and rolls up status", func(t *testing.T) {
		f := newRefundFixture()
		result, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID:   f.payment.ID,
			Items:       []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Reason:      "damaged",
			Source:      enum.RefundSourcePOS,
			ProcessedBy: uuid.New(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// $10 line + $1.60 tax + 167 of the 500 tip
		if result.RefundAmount != 1327 {
			t.Errorf("refund amount = %d, want 1327", result.RefundAmount)
		}

		if len(f.txRepo.created) != 1 {
			t.Fatalf("created %d transactions, want 1", len(f.txRepo.created))
		}
		refundTx := f.txRepo.created[0]
		if refundTx.Type != enum.TransactionTypeRefund {
			t.Errorf("transaction type = %v, want refund", refundTx.Type)
		}
		if refundTx.Amount != 1327 || refundTx.Tip != 167 {
			t.Errorf("transaction amount/tip = %d/%d, want 1327/167", refundTx.Amount, refundTx.Tip)
		}

		if len(f.refundItems.rows) != 1 {
			t.Fatalf("created %d refund items, want 1", len(f.refundItems.rows))
		}
		row := f.refundItems.rows[0]
		if row.QuantityRefunded != 1 || row.TotalRefundAmount != 1000 || row.TaxRefunded != 160 || row.TipRefunded != 167 {
			t.Errorf("refund item row = %+v", row)
		}
		if row.RefundTransactionID != refundTx.ID {
			t.Error("refund item not linked to the refund transaction")
		}

		if len(f.auditLogs.rows) != 1 {
			t.Fatalf("created %d audit rows, want 1", len(f.auditLogs.rows))
		}
		audit := f.auditLogs.rows[0]
		if audit.Status != enum.AuditStatusSuccess || audit.Action != enum.RefundActionInitiated {
			t.Errorf("audit row status/action = %v/%v", audit.Status, audit.Action)
		}
		if audit.RefundAmount != 1327 {
			t.Errorf("audit refund amount = %d, want 1327", audit.RefundAmount)
		}

		if f.paymentRepo.statuses[f.payment.ID] != enum.PaymentStatusPartiallyRefunded {
			t.Errorf("payment status = %v, want partially refunded", f.paymentRepo.statuses[f.payment.ID])
		}
	})

	t.Run("records a failed audit row on validation failure", func(t *testing.T) {
		f := newRefundFixture()
		_, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 5}},
			Reason:    "too many",
			Source:    enum.RefundSourcePOS,
		})
		if err == nil {
			t.Fatal("expected validation error")
		}

		if len(f.txRepo.created) != 0 {
			t.Errorf("failed refund created %d transactions", len(f.txRepo.created))
		}
		if len(f.auditLogs.rows) != 1 {
			t.Fatalf("created %d audit rows, want 1 failed row", len(f.auditLogs.rows))
		}
		audit := f.auditLogs.rows[0]
		if audit.Status != enum.AuditStatusFailed {
			t.Errorf("audit status = %v, want failed", audit.Status)
		}
		if audit.ErrorMessage == "" {
			t.Error("failed audit row has empty error message")
		}
	})

	t.Run("rejects an order outside the tenant refund window", func(t *testing.T) {
		f := newRefundFixture()
		window := f.tenants.tenants[testTenantID].Settings.RefundWindow
		f.order.CreatedAt = time.Now().AddDate(0, 0, -(window + 1))

		_, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Reason:    "late return",
			Source:    enum.RefundSourcePOS,
		})
		if err == nil {
			t.Fatal("expected refund window rejection")
		}
		if len(f.txRepo.created) != 0 {
			t.Errorf("late refund created %d transactions", len(f.txRepo.created))
		}
	})

	t.Run("allows any age when the refund window is zero", func(t *testing.T) {
		f := newRefundFixture()
		f.tenants.tenants[testTenantID].Settings.RefundWindow = 0
		f.order.CreatedAt = time.Now().AddDate(-1, 0, 0)

		_, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Reason:    "old but allowed",
			Source:    enum.RefundSourcePOS,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects a line cumulatively refunded out", func(t *testing.T) {
		f := newRefundFixture()
		input := &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Source:    enum.RefundSourcePOS,
		}
		if _, err := f.svc.ProcessRefund(testCtx(), input); err != nil {
			t.Fatalf("first refund failed: %v", err)
		}
		if _, err := f.svc.ProcessRefund(testCtx(), input); err == nil {
			t.Fatal("second refund of the same unit should fail")
		}

		// One success row, one failed row
		var success, failed int
		for _, row := range f.auditLogs.rows {
			switch row.Status {
			case enum.AuditStatusSuccess:
				success++
			case enum.AuditStatusFailed:
				failed++
			}
		}
		if success != 1 || failed != 1 {
			t.Errorf("audit rows success/failed = %d/%d, want 1/1", success, failed)
		}
	})

	t.Run("rejects items from another order", func(t *testing.T) {
		f := newRefundFixture()
		_, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: uuid.New(), Quantity: 1}},
			Source:    enum.RefundSourcePOS,
		})
		if err == nil {
			t.Fatal("expected error for foreign order item")
		}
	})

	t.Run("requires tenant context", func(t *testing.T) {
		f := newRefundFixture()
		_, err := f.svc.ProcessRefund(context.Background(), &ProcessRefundInput{
			PaymentID: f.payment.ID,
			Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
		})
		if err == nil {
			t.Fatal("expected error without tenant context")
		}
	})

	t.Run("refunds against an explicitly chosen sale transaction", func(t *testing.T) {
		f := newRefundFixture()
		txID := f.saleTx.ID
		result, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
			PaymentID:     f.payment.ID,
			Items:         []ItemQuantity{{OrderItemID: f.order.Items[1].ID, Quantity: 1}},
			TransactionID: &txID,
			Source:        enum.RefundSourceAdmin,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// $20 line + $3.20 tax + 333 of the 500 tip
		if result.RefundAmount != 2653 {
			t.Errorf("refund amount = %d, want 2653", result.RefundAmount)
		}
	})
}

func TestProcessFullOrderRefund(t *testing.T) {
	f := newRefundFixture()
	result, err := f.svc.ProcessFullOrderRefund(
		testCtx(), f.payment.ID, "order returned", nil, enum.RefundSourcePOS, uuid.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The whole capture comes back, tip included
	if result.RefundAmount != f.saleTx.Amount {
		t.Errorf("refund amount = %d, want %d", result.RefundAmount, f.saleTx.Amount)
	}
	if len(result.RefundItems) != 2 {
		t.Errorf("refunded %d lines, want 2", len(result.RefundItems))
	}
	if f.paymentRepo.statuses[f.payment.ID] != enum.PaymentStatusRefunded {
		t.Errorf("payment status = %v, want refunded", f.paymentRepo.statuses[f.payment.ID])
	}
	if len(f.auditLogs.rows) != 1 || f.auditLogs.rows[0].Action != enum.RefundActionFullInitiated {
		t.Errorf("audit rows = %+v, want one full_refund_initiated row", f.auditLogs.rows)
	}
}

func TestGetRefundHistory(t *testing.T) {
	f := newRefundFixture()
	if _, err := f.svc.ProcessRefund(testCtx(), &ProcessRefundInput{
		PaymentID: f.payment.ID,
		Items:     []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
		Source:    enum.RefundSourcePOS,
	}); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	history, err := f.svc.GetRefundHistory(testCtx(), f.payment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history has %d rows, want 1", len(history))
	}

	if _, err := f.svc.GetRefundHistory(testCtx(), uuid.New()); err == nil {
		t.Error("expected error for unknown payment")
	}
}
