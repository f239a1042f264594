package entity

import (
	"encoding/json"
	"testing"
)

func TestMoneyFieldsMarshalAtCurrencyScale(t *testing.T) {
	t.Run("zero-digit currency renders whole units", func(t *testing.T) {
		order := Order{Currency: "JPY", SubTotal: 1500, TaxTotal: 150, GrandTotal: 1650}

		data, err := json.Marshal(order)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := out["grand_total"].(float64); got != 1650 {
			t.Errorf("grand_total = %v, want 1650", got)
		}
		if got := out["sub_total"].(float64); got != 1500 {
			t.Errorf("sub_total = %v, want 1500", got)
		}
	})

	t.Run("three-digit currency renders three decimals", func(t *testing.T) {
		tx := PaymentTransaction{Currency: "KWD", Amount: 1234}

		data, err := json.Marshal(tx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := out["amount"].(float64); got != 1.234 {
			t.Errorf("amount = %v, want 1.234", got)
		}
	})

	t.Run("catalog prices follow the product currency", func(t *testing.T) {
		p := Product{Currency: "JPY"}
		p.SetSellingPriceFromDecimal(500)
		if p.SellingPrice != 500 {
			t.Fatalf("SellingPrice = %d, want 500 minor units", p.SellingPrice)
		}

		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := out["selling_price"].(float64); got != 500 {
			t.Errorf("selling_price = %v, want 500", got)
		}
	})

	t.Run("two-digit currency keeps cent scale", func(t *testing.T) {
		session := ExchangeSession{Currency: "USD", RefundAmount: 1327, NewOrderAmount: 2500, BalanceDue: 1173}

		data, err := json.Marshal(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := out["balance_due"].(float64); got != 11.73 {
			t.Errorf("balance_due = %v, want 11.73", got)
		}
	})
}
