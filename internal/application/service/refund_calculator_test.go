package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
)

// twoLineOrder returns a $10 line and a $20 line with a $5 tip on the sale
// capture. The tip splits 167/333 by subtotal weight.
func twoLineOrder() (*entity.Order, *entity.PaymentTransaction) {
	lineA := entity.OrderItem{ID: uuid.New(), Quantity: 1, PriceAtSale: 1000, TaxAmount: 160}
	lineB := entity.OrderItem{ID: uuid.New(), Quantity: 1, PriceAtSale: 2000, TaxAmount: 320}
	order := &entity.Order{
		ID:         uuid.New(),
		SubTotal:   3000,
		TaxTotal:   480,
		GrandTotal: 3480,
		Currency:   "USD",
		Items:      []entity.OrderItem{lineA, lineB},
	}
	tx := &entity.PaymentTransaction{
		ID:     uuid.New(),
		Type:   enum.TransactionTypeSale,
		Status: enum.TransactionStatusSuccessful,
		Amount: 3980,
		Tip:    500,
	}
	return order, tx
}

func TestItemRefund(t *testing.T) {
	calc := NewRefundCalculator()

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order, tx := twoLineOrder()
		if _, err := calc.ItemRefund(order, &order.Items[0], 0, tx); err == nil {
			t.Fatal("expected error for zero quantity")
		}
		if _, err := calc.ItemRefund(order, &order.Items[0], -1, tx); err == nil {
			t.Fatal("expected error for negative quantity")
		}
	})

	t.Run("rejects quantity above ordered", func(t *testing.T) {
		order, tx := twoLineOrder()
		if _, err := calc.ItemRefund(order, &order.Items[0], 2, tx); err == nil {
			t.Fatal("expected error for over-ordered quantity")
		}
	})

	t.Run("rejects nil transaction", func(t *testing.T) {
		order, _ := twoLineOrder()
		if _, err := calc.ItemRefund(order, &order.Items[0], 1, nil); err == nil {
			t.Fatal("expected error for nil transaction")
		}
	})

	t.Run("splits tip by subtotal weight", func(t *testing.T) {
		order, tx := twoLineOrder()

		a, err := calc.ItemRefund(order, &order.Items[0], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Subtotal != 1000 {
			t.Errorf("subtotal = %d, want 1000", a.Subtotal)
		}
		if a.Tax != 160 {
			t.Errorf("tax = %d, want 160", a.Tax)
		}
		if a.Tip != 167 {
			t.Errorf("tip = %d, want 167", a.Tip)
		}

		b, err := calc.ItemRefund(order, &order.Items[1], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Tip != 333 {
			t.Errorf("tip = %d, want 333", b.Tip)
		}
		if a.Tip+b.Tip != tx.Tip {
			t.Errorf("tip shares %d + %d do not reproduce recorded tip %d", a.Tip, b.Tip, tx.Tip)
		}
	})

	t.Run("breakdown total equals component sum", func(t *testing.T) {
		order, tx := twoLineOrder()
		b, err := calc.ItemRefund(order, &order.Items[1], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sum := b.Subtotal + b.Tax + b.Modifiers + b.Tip + b.Surcharge
		if b.Total != sum {
			t.Errorf("total = %d, want component sum %d", b.Total, sum)
		}
	})

	t.Run("prorates stored per-line tax with floor division", func(t *testing.T) {
		line := entity.OrderItem{ID: uuid.New(), Quantity: 3, PriceAtSale: 999, TaxAmount: 100}
		order := &entity.Order{
			ID:         uuid.New(),
			SubTotal:   2997,
			TaxTotal:   100,
			GrandTotal: 3097,
			Items:      []entity.OrderItem{line},
		}
		tx := &entity.PaymentTransaction{
			ID:     uuid.New(),
			Type:   enum.TransactionTypeSale,
			Status: enum.TransactionStatusSuccessful,
			Amount: 3097,
		}

		one, err := calc.ItemRefund(order, &order.Items[0], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 100 * 1 / 3 floors to 33; the remainder cent stays with the merchant
		if one.Tax != 33 {
			t.Errorf("tax for one unit = %d, want 33", one.Tax)
		}

		all, err := calc.ItemRefund(order, &order.Items[0], 3, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if all.Tax != 100 {
			t.Errorf("tax for full quantity = %d, want 100", all.Tax)
		}
	})

	t.Run("derives tax from order aggregates on legacy lines", func(t *testing.T) {
		line := entity.OrderItem{ID: uuid.New(), Quantity: 2, PriceAtSale: 1000, TaxAmount: 0}
		other := entity.OrderItem{ID: uuid.New(), Quantity: 1, PriceAtSale: 2000, TaxAmount: 0}
		order := &entity.Order{
			ID:         uuid.New(),
			SubTotal:   4000,
			TaxTotal:   640,
			GrandTotal: 4640,
			Items:      []entity.OrderItem{line, other},
		}
		tx := &entity.PaymentTransaction{
			ID:     uuid.New(),
			Type:   enum.TransactionTypeSale,
			Status: enum.TransactionStatusSuccessful,
			Amount: 4640,
		}

		b, err := calc.ItemRefund(order, &order.Items[0], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 640 * 1000 / 4000
		if b.Tax != 160 {
			t.Errorf("derived tax = %d, want 160", b.Tax)
		}
	})

	t.Run("prorates modifiers by quantity", func(t *testing.T) {
		line := entity.OrderItem{ID: uuid.New(), Quantity: 3, PriceAtSale: 500, ModifiersTotal: 100}
		order := &entity.Order{
			ID:         uuid.New(),
			SubTotal:   1600,
			GrandTotal: 1600,
			Items:      []entity.OrderItem{line},
		}
		tx := &entity.PaymentTransaction{
			ID:     uuid.New(),
			Type:   enum.TransactionTypeSale,
			Status: enum.TransactionStatusSuccessful,
			Amount: 1600,
		}

		b, err := calc.ItemRefund(order, &order.Items[0], 2, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 100 * 2 / 3 floors to 66
		if b.Modifiers != 66 {
			t.Errorf("modifiers = %d, want 66", b.Modifiers)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		order, tx := twoLineOrder()
		first, err := calc.ItemRefund(order, &order.Items[0], 1, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < 50; i++ {
			again, err := calc.ItemRefund(order, &order.Items[0], 1, tx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *again != *first {
				t.Fatalf("run %d produced %+v, first run produced %+v", i, again, first)
			}
		}
	})
}

func TestMultiItemRefund(t *testing.T) {
	calc := NewRefundCalculator()

	t.Run("rejects empty pairs", func(t *testing.T) {
		order, tx := twoLineOrder()
		if _, err := calc.MultiItemRefund(order, nil, tx); err == nil {
			t.Fatal("expected error for empty pairs")
		}
	})

	t.Run("rejects unknown order item", func(t *testing.T) {
		order, tx := twoLineOrder()
		pairs := []ItemQuantity{{OrderItemID: uuid.New(), Quantity: 1}}
		if _, err := calc.MultiItemRefund(order, pairs, tx); err == nil {
			t.Fatal("expected error for unknown item")
		}
	})

	t.Run("sums components in minor units", func(t *testing.T) {
		order, tx := twoLineOrder()
		pairs := []ItemQuantity{
			{OrderItemID: order.Items[0].ID, Quantity: 1},
			{OrderItemID: order.Items[1].ID, Quantity: 1},
		}

		m, err := calc.MultiItemRefund(order, pairs, tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.TotalSubtotal != 3000 {
			t.Errorf("total subtotal = %d, want 3000", m.TotalSubtotal)
		}
		if m.TotalTax != 480 {
			t.Errorf("total tax = %d, want 480", m.TotalTax)
		}
		if m.TotalTip != 500 {
			t.Errorf("total tip = %d, want %d", m.TotalTip, tx.Tip)
		}
		want := m.TotalSubtotal + m.TotalTax + m.TotalModifiers + m.TotalTip + m.TotalSurcharge
		if m.GrandTotal != want {
			t.Errorf("grand total = %d, want %d", m.GrandTotal, want)
		}
	})
}

func TestFullRefundPreview(t *testing.T) {
	calc := NewRefundCalculator()
	order, tx := twoLineOrder()

	m, err := calc.FullRefundPreview(order, tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A full refund returns the entire capture: subtotal, tax and the whole
	// recorded tip, with no cent lost to per-line rounding.
	if m.GrandTotal != tx.Amount {
		t.Errorf("grand total = %d, want sale amount %d", m.GrandTotal, tx.Amount)
	}
	if m.TotalTip != tx.Tip {
		t.Errorf("total tip = %d, want %d", m.TotalTip, tx.Tip)
	}
}
