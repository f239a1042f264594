package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
)

type exchangeFixture struct {
	*refundFixture
	svc          *ExchangeService
	exchangeRepo *fakeExchangeRepo
	productRepo  *fakeProductRepo
	replacement  *entity.Product
}

func newExchangeFixture() *exchangeFixture {
	base := newRefundFixture()

	productRepo := newFakeProductRepo()
	replacement := &entity.Product{
		ID:           uuid.New(),
		Name:         "Replacement",
		Quantity:     10,
		SellingPrice: 2500,
	}
	productRepo.products[replacement.ID] = replacement

	orderService := NewOrderService(base.orderRepo, base.itemRepo, productRepo, &fakeCustomerRepo{})
	paymentService := NewPaymentService(fakeUnitOfWork{}, base.paymentRepo, base.txRepo, base.orderRepo)

	f := &exchangeFixture{
		refundFixture: base,
		exchangeRepo:  newFakeExchangeRepo(),
		productRepo:   productRepo,
		replacement:   replacement,
	}
	f.svc = NewExchangeService(
		fakeUnitOfWork{},
		f.exchangeRepo,
		base.orderRepo,
		base.paymentRepo,
		base.txRepo,
		base.auditLogs,
		base.refundItems,
		base.svc,
		orderService,
		paymentService,
		base.tenants,
		NewRefundValidator(base.refundItems),
	)
	return f
}

// session injects an exchange session in the given state, pointing at the
// fixture's original order and payment.
func (f *exchangeFixture) session(status enum.ExchangeStatus, refundAmount, newOrderAmount int64) *entity.ExchangeSession {
	s := &entity.ExchangeSession{
		ID:                uuid.New(),
		TenantID:          testTenantID,
		OriginalOrderID:   f.order.ID,
		OriginalPaymentID: f.payment.ID,
		RefundAmount:      refundAmount,
		NewOrderAmount:    newOrderAmount,
		Status:            status,
	}
	s.RecalculateBalance()
	f.exchangeRepo.sessions[s.ID] = s
	return s
}

func TestInitiateExchange(t *testing.T) {
	t.Run("refunds returned items and advances to refund completed", func(t *testing.T) {
		f := newExchangeFixture()
		session, err := f.svc.InitiateExchange(testCtx(), &InitiateExchangeInput{
			OriginalOrderID: f.order.ID,
			ItemsToReturn:   []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Reason:          "wrong size",
			Source:          enum.RefundSourcePOS,
			ProcessedBy:     uuid.New(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.Status != enum.ExchangeStatusRefundCompleted {
			t.Errorf("status = %v, want refund completed", session.Status)
		}
		// $10 line + $1.60 tax + 167 tip share
		if session.RefundAmount != 1327 {
			t.Errorf("refund amount = %d, want 1327", session.RefundAmount)
		}
		if session.BalanceDue != -1327 {
			t.Errorf("balance due = %d, want -1327", session.BalanceDue)
		}
		if session.RefundTransactionID == nil {
			t.Error("refund transaction not linked to the session")
		}
		if f.exchangeRepo.sessions[session.ID] == nil {
			t.Error("session not persisted")
		}
		if len(f.refundItems.rows) != 1 {
			t.Errorf("created %d refund items, want 1", len(f.refundItems.rows))
		}
	})

	t.Run("rejects invalid return quantities before creating a session", func(t *testing.T) {
		f := newExchangeFixture()
		_, err := f.svc.InitiateExchange(testCtx(), &InitiateExchangeInput{
			OriginalOrderID: f.order.ID,
			ItemsToReturn:   []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 5}},
			Source:          enum.RefundSourcePOS,
		})
		if err == nil {
			t.Fatal("expected validation error")
		}
		if len(f.exchangeRepo.sessions) != 0 {
			t.Errorf("created %d sessions for an invalid exchange", len(f.exchangeRepo.sessions))
		}
	})

	t.Run("rejects exchanges when the tenant feature is off", func(t *testing.T) {
		f := newExchangeFixture()
		f.tenants.tenants[testTenantID].Settings.Features.EnableExchanges = false

		_, err := f.svc.InitiateExchange(testCtx(), &InitiateExchangeInput{
			OriginalOrderID: f.order.ID,
			ItemsToReturn:   []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
			Reason:          "exchange",
			Source:          enum.RefundSourcePOS,
		})
		if err == nil {
			t.Fatal("expected feature gate rejection")
		}
		if len(f.exchangeRepo.sessions) != 0 {
			t.Errorf("gated exchange created %d sessions", len(f.exchangeRepo.sessions))
		}
	})

	t.Run("rejects empty returns", func(t *testing.T) {
		f := newExchangeFixture()
		_, err := f.svc.InitiateExchange(testCtx(), &InitiateExchangeInput{
			OriginalOrderID: f.order.ID,
		})
		if err == nil {
			t.Fatal("expected error for empty item list")
		}
	})
}

func TestCreateNewOrder(t *testing.T) {
	t.Run("requires refund completed state", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusInitiated, 0, 0)
		_, err := f.svc.CreateNewOrder(testCtx(), &CreateNewOrderInput{
			SessionID: s.ID,
			Items:     []OrderItemInput{{ProductID: f.replacement.ID, Quantity: 1}},
		})
		if err == nil {
			t.Fatal("expected invalid state error")
		}
	})

	t.Run("returns not found when the original order is gone", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusRefundCompleted, 1327, 0)
		s.OriginalOrderID = uuid.New()

		_, err := f.svc.CreateNewOrder(testCtx(), &CreateNewOrderInput{
			SessionID:   s.ID,
			Items:       []OrderItemInput{{ProductID: f.replacement.ID, Quantity: 1}},
			ProcessedBy: uuid.New(),
		})
		if err == nil {
			t.Fatal("expected not found error for a missing original order")
		}
		if f.exchangeRepo.sessions[s.ID].Status != enum.ExchangeStatusRefundCompleted {
			t.Error("session advanced despite missing original order")
		}
	})

	t.Run("creates the replacement order and recalculates balance", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusRefundCompleted, 1327, 0)

		updated, err := f.svc.CreateNewOrder(testCtx(), &CreateNewOrderInput{
			SessionID:   s.ID,
			Items:       []OrderItemInput{{ProductID: f.replacement.ID, Quantity: 1}},
			ProcessedBy: uuid.New(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if updated.Status != enum.ExchangeStatusNewOrderCreated {
			t.Errorf("status = %v, want new order created", updated.Status)
		}
		if updated.NewOrderID == nil {
			t.Fatal("new order not linked to the session")
		}
		if updated.NewOrderAmount != 2500 {
			t.Errorf("new order amount = %d, want 2500", updated.NewOrderAmount)
		}
		if updated.BalanceDue != 2500-1327 {
			t.Errorf("balance due = %d, want %d", updated.BalanceDue, 2500-1327)
		}

		newOrder := f.orderRepo.orders[*updated.NewOrderID]
		if newOrder == nil {
			t.Fatal("replacement order not persisted")
		}
		if newOrder.OrderType != enum.OrderTypeExchange {
			t.Errorf("order type = %v, want exchange", newOrder.OrderType)
		}
	})
}

func TestCompleteExchange(t *testing.T) {
	t.Run("requires new order created state", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusRefundCompleted, 1000, 0)
		_, err := f.svc.CompleteExchange(testCtx(), s.ID, "", uuid.New())
		if err == nil {
			t.Fatal("expected invalid state error")
		}
	})

	t.Run("positive balance needs a payment method", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusNewOrderCreated, 1000, 2500)
		s.NewOrderID = &f.order.ID

		_, err := f.svc.CompleteExchange(testCtx(), s.ID, "", uuid.New())
		if err == nil {
			t.Fatal("expected error without payment method")
		}
		if f.exchangeRepo.sessions[s.ID].Status == enum.ExchangeStatusCompleted {
			t.Error("session completed despite failed settlement")
		}
	})

	t.Run("failed settlement leaves a failed audit row", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusNewOrderCreated, 1000, 2500)
		s.NewOrderID = &f.order.ID

		if _, err := f.svc.CompleteExchange(testCtx(), s.ID, "", uuid.New()); err == nil {
			t.Fatal("expected error without payment method")
		}

		var failed *entity.RefundAuditLog
		for i := range f.auditLogs.rows {
			if f.auditLogs.rows[i].Status == enum.AuditStatusFailed {
				failed = &f.auditLogs.rows[i]
			}
		}
		if failed == nil {
			t.Fatal("no failed audit row written for the aborted settlement")
		}
		if failed.Action != enum.RefundActionBalance {
			t.Errorf("audit action = %v, want balance", failed.Action)
		}
		if failed.PaymentID != f.payment.ID {
			t.Error("failed settlement not logged against the original payment")
		}
		if failed.ErrorMessage == "" {
			t.Error("failed audit row carries no error message")
		}
	})

	t.Run("positive balance records a pending payment", func(t *testing.T) {
		f := newExchangeFixture()
		newOrder := &entity.Order{ID: uuid.New(), TenantID: testTenantID, GrandTotal: 2500, Currency: "USD"}
		f.orderRepo.orders[newOrder.ID] = newOrder
		s := f.session(enum.ExchangeStatusNewOrderCreated, 1000, 2500)
		s.NewOrderID = &newOrder.ID

		result, err := f.svc.CompleteExchange(testCtx(), s.ID, "CASH", uuid.New())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Action != ExchangeActionPaymentRequired {
			t.Errorf("action = %q, want %q", result.Action, ExchangeActionPaymentRequired)
		}
		if result.Session.Status != enum.ExchangeStatusCompleted {
			t.Errorf("status = %v, want completed", result.Session.Status)
		}
		if result.Session.NewPaymentID == nil {
			t.Fatal("pending payment not linked")
		}
		if result.Session.CompletedAt == nil {
			t.Error("completed timestamp not set")
		}

		var pending *entity.PaymentTransaction
		for _, tx := range f.txRepo.created {
			if tx.Status == enum.TransactionStatusPending {
				pending = tx
			}
		}
		if pending == nil {
			t.Fatal("no pending transaction recorded")
		}
		if pending.Amount != 1500 {
			t.Errorf("pending amount = %d, want 1500", pending.Amount)
		}
	})

	t.Run("negative balance issues a refund against the original payment", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusNewOrderCreated, 2500, 1000)
		s.NewOrderID = &f.order.ID

		result, err := f.svc.CompleteExchange(testCtx(), s.ID, "", uuid.New())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Action != ExchangeActionRefundIssued {
			t.Errorf("action = %q, want %q", result.Action, ExchangeActionRefundIssued)
		}
		if result.RefundTxID == nil {
			t.Fatal("refund transaction not reported")
		}

		var refund *entity.PaymentTransaction
		for _, tx := range f.txRepo.created {
			if tx.ID == *result.RefundTxID {
				refund = tx
			}
		}
		if refund == nil {
			t.Fatal("refund transaction not persisted")
		}
		if refund.Type != enum.TransactionTypeRefund || refund.Amount != 1500 {
			t.Errorf("refund tx type/amount = %v/%d, want refund/1500", refund.Type, refund.Amount)
		}
		if refund.PaymentID != f.payment.ID {
			t.Error("balance refund not written against the original payment")
		}

		var balanceAudit bool
		for _, row := range f.auditLogs.rows {
			if row.Action == enum.RefundActionBalance && row.RefundAmount == 1500 {
				balanceAudit = true
			}
		}
		if !balanceAudit {
			t.Error("no balance refund audit row written")
		}
	})

	t.Run("balance within one cent is an even exchange", func(t *testing.T) {
		for _, balance := range []int64{-1, 0, 1} {
			f := newExchangeFixture()
			s := f.session(enum.ExchangeStatusNewOrderCreated, 1000, 1000+balance)
			s.NewOrderID = &f.order.ID

			result, err := f.svc.CompleteExchange(testCtx(), s.ID, "", uuid.New())
			if err != nil {
				t.Fatalf("balance %d: unexpected error: %v", balance, err)
			}
			if result.Action != ExchangeActionEvenExchange {
				t.Errorf("balance %d: action = %q, want %q", balance, result.Action, ExchangeActionEvenExchange)
			}
			if len(f.txRepo.created) != 0 {
				t.Errorf("balance %d: even exchange moved money: %d transactions", balance, len(f.txRepo.created))
			}
			if result.Session.Status != enum.ExchangeStatusCompleted {
				t.Errorf("balance %d: status = %v, want completed", balance, result.Session.Status)
			}
		}
	})
}

func TestCancelExchange(t *testing.T) {
	t.Run("cancels a non-terminal session", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusRefundCompleted, 1327, 0)

		cancelled, err := f.svc.CancelExchange(testCtx(), s.ID, "customer changed mind")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cancelled.Status != enum.ExchangeStatusCancelled {
			t.Errorf("status = %v, want cancelled", cancelled.Status)
		}
		if !strings.Contains(cancelled.Notes, "customer changed mind") {
			t.Errorf("notes = %q, want the cancellation reason", cancelled.Notes)
		}
	})

	t.Run("rejects cancelling a completed session", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusCompleted, 1000, 1000)
		if _, err := f.svc.CancelExchange(testCtx(), s.ID, "too late"); err == nil {
			t.Fatal("expected invalid state error")
		}
	})

	t.Run("rejects cancelling twice", func(t *testing.T) {
		f := newExchangeFixture()
		s := f.session(enum.ExchangeStatusCancelled, 0, 0)
		if _, err := f.svc.CancelExchange(testCtx(), s.ID, "again"); err == nil {
			t.Fatal("expected invalid state error")
		}
	})
}

func TestCalculateBalance(t *testing.T) {
	f := newExchangeFixture()
	s := f.session(enum.ExchangeStatusNewOrderCreated, 1327, 2500)
	s.BalanceDue = 0 // Stale value; recalculation must fix it

	updated, err := f.svc.CalculateBalance(testCtx(), s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.BalanceDue != 2500-1327 {
		t.Errorf("balance due = %d, want %d", updated.BalanceDue, 2500-1327)
	}
	if updated.Status != enum.ExchangeStatusNewOrderCreated {
		t.Errorf("status changed to %v, balance calculation must not transition", updated.Status)
	}
}

func TestGetExchangeSummary(t *testing.T) {
	f := newExchangeFixture()
	session, err := f.svc.InitiateExchange(testCtx(), &InitiateExchangeInput{
		OriginalOrderID: f.order.ID,
		ItemsToReturn:   []ItemQuantity{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
		Source:          enum.RefundSourcePOS,
		ProcessedBy:     uuid.New(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	summary, err := f.svc.GetExchangeSummary(testCtx(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OriginalOrder == nil || summary.OriginalOrder.ID != f.order.ID {
		t.Error("summary missing the original order")
	}
	if len(summary.RefundItems) != 1 {
		t.Errorf("summary has %d refund items, want 1", len(summary.RefundItems))
	}

	if _, err := f.svc.GetExchangeSummary(testCtx(), uuid.New()); err == nil {
		t.Error("expected error for unknown session")
	}
}
