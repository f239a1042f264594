package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/money"
)

// RefundCalculator computes exact refund amounts in minor units. It is pure:
// it never touches a repository and never mutates its inputs, so the same
// inputs always produce the same breakdown.
type RefundCalculator struct{}

// NewRefundCalculator creates a new refund calculator
func NewRefundCalculator() *RefundCalculator {
	return &RefundCalculator{}
}

// RefundBreakdown is one line's refund split, all amounts in cents.
type RefundBreakdown struct {
	OrderItemID   uuid.UUID `json:"order_item_id"`
	Quantity      int       `json:"quantity"`
	AmountPerUnit int64     `json:"-"`
	Subtotal      int64     `json:"-"`
	Tax           int64     `json:"-"`
	Modifiers     int64     `json:"-"`
	Tip           int64     `json:"-"`
	Surcharge     int64     `json:"-"`
	Total         int64     `json:"-"`
}

// MultiRefundBreakdown aggregates per-line breakdowns. Component totals are
// summed in minor units before any decimal conversion.
type MultiRefundBreakdown struct {
	Items          []RefundBreakdown `json:"items"`
	TotalSubtotal  int64             `json:"-"`
	TotalTax       int64             `json:"-"`
	TotalModifiers int64             `json:"-"`
	TotalTip       int64             `json:"-"`
	TotalSurcharge int64             `json:"-"`
	GrandTotal     int64             `json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (b RefundBreakdown) MarshalJSON() ([]byte, error) {
	type Alias RefundBreakdown
	return json.Marshal(&struct {
		Alias
		AmountPerUnit float64 `json:"amount_per_unit"`
		Subtotal      float64 `json:"subtotal"`
		Tax           float64 `json:"tax"`
		Modifiers     float64 `json:"modifiers"`
		Tip           float64 `json:"tip"`
		Surcharge     float64 `json:"surcharge"`
		Total         float64 `json:"total"`
	}{
		Alias:         Alias(b),
		AmountPerUnit: float64(b.AmountPerUnit) / 100,
		Subtotal:      float64(b.Subtotal) / 100,
		Tax:           float64(b.Tax) / 100,
		Modifiers:     float64(b.Modifiers) / 100,
		Tip:           float64(b.Tip) / 100,
		Surcharge:     float64(b.Surcharge) / 100,
		Total:         float64(b.Total) / 100,
	})
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (m MultiRefundBreakdown) MarshalJSON() ([]byte, error) {
	type Alias MultiRefundBreakdown
	return json.Marshal(&struct {
		Alias
		TotalSubtotal  float64 `json:"total_subtotal"`
		TotalTax       float64 `json:"total_tax"`
		TotalModifiers float64 `json:"total_modifiers"`
		TotalTip       float64 `json:"total_tip"`
		TotalSurcharge float64 `json:"total_surcharge"`
		GrandTotal     float64 `json:"grand_total"`
	}{
		Alias:          Alias(m),
		TotalSubtotal:  float64(m.TotalSubtotal) / 100,
		TotalTax:       float64(m.TotalTax) / 100,
		TotalModifiers: float64(m.TotalModifiers) / 100,
		TotalTip:       float64(m.TotalTip) / 100,
		TotalSurcharge: float64(m.TotalSurcharge) / 100,
		GrandTotal:     float64(m.GrandTotal) / 100,
	})
}

// ItemQuantity pairs an order line with the quantity being refunded.
type ItemQuantity struct {
	OrderItemID uuid.UUID
	Quantity    int
}

// ItemRefund computes the refund breakdown for refunding quantity units of
// item against tx. The order must carry all of its line items: tip and
// surcharge are allocated across the whole order, with the refunded line's
// weight reduced to the quantity actually being returned, so a full-order
// refund reproduces the transaction's recorded tip and surcharge exactly.
func (c *RefundCalculator) ItemRefund(order *entity.Order, item *entity.OrderItem, quantity int, tx *entity.PaymentTransaction) (*RefundBreakdown, error) {
	if quantity <= 0 {
		return nil, apperror.NewBadRequestError("Refund quantity must be positive")
	}
	if quantity > item.Quantity {
		return nil, apperror.NewBadRequestError(
			fmt.Sprintf("Cannot refund %d units - only %d ordered", quantity, item.Quantity))
	}
	if tx == nil {
		return nil, apperror.NewBadRequestError("No refundable transaction found for payment")
	}

	subtotal := item.PriceAtSale * int64(quantity)
	tax := c.taxRefund(order, item, quantity)

	// Modifier charges are prorated the same way as stored per-line tax:
	// floor division, remainder stays with the merchant.
	modifiers := item.ModifiersTotal * int64(quantity) / int64(item.Quantity)

	tip := c.allocateShare(order, item, quantity, tx.Tip)
	surcharge := c.allocateShare(order, item, quantity, tx.Surcharge)

	total := subtotal + tax + modifiers + tip + surcharge
	if err := money.ValidateMinorSum(
		[]int64{subtotal, tax, modifiers, tip, surcharge}, total,
		"item refund breakdown"); err != nil {
		return nil, err
	}

	return &RefundBreakdown{
		OrderItemID:   item.ID,
		Quantity:      quantity,
		AmountPerUnit: item.PriceAtSale,
		Subtotal:      subtotal,
		Tax:           tax,
		Modifiers:     modifiers,
		Tip:           tip,
		Surcharge:     surcharge,
		Total:         total,
	}, nil
}

// taxRefund returns the tax portion for a partial refund of item.
//
// Lines with a stored per-line tax are prorated by quantity using integer
// division: the remainder cent is deliberately not refunded (the merchant
// keeps the rounding difference; changing that direction is a business
// decision, not a rounding fix). Legacy lines with no stored tax derive a
// line tax from the order aggregates, weighted by the refunded subtotal.
func (c *RefundCalculator) taxRefund(order *entity.Order, item *entity.OrderItem, quantity int) int64 {
	if item.TaxAmount > 0 {
		return item.TaxAmount * int64(quantity) / int64(item.Quantity)
	}
	if order.SubTotal <= 0 || order.TaxTotal <= 0 {
		return 0
	}
	refundedSubtotal := item.PriceAtSale * int64(quantity)
	return order.TaxTotal * refundedSubtotal / order.SubTotal
}

// allocateShare distributes total (tip or surcharge) across every line on the
// order by subtotal weight and returns the refunded line's share. The
// refunded line's weight reflects only the quantity being returned.
func (c *RefundCalculator) allocateShare(order *entity.Order, item *entity.OrderItem, quantity int, total int64) int64 {
	if total == 0 || len(order.Items) == 0 {
		return 0
	}
	weights := make([]int64, len(order.Items))
	idx := -1
	for i := range order.Items {
		line := &order.Items[i]
		if line.ID == item.ID {
			idx = i
			weights[i] = line.PriceAtSale * int64(quantity)
		} else {
			weights[i] = line.LineSubtotal()
		}
	}
	if idx == -1 {
		return 0
	}
	return money.AllocateMinor(weights, total)[idx]
}

// MultiItemRefund computes a breakdown per (line, quantity) pair and sums
// each component in minor units. Summing decimals per pair would compound
// rounding; the integer sums here cannot.
func (c *RefundCalculator) MultiItemRefund(order *entity.Order, pairs []ItemQuantity, tx *entity.PaymentTransaction) (*MultiRefundBreakdown, error) {
	if len(pairs) == 0 {
		return nil, apperror.NewBadRequestError("No items to refund")
	}

	itemsByID := make(map[uuid.UUID]*entity.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}

	result := &MultiRefundBreakdown{Items: make([]RefundBreakdown, 0, len(pairs))}
	for _, pair := range pairs {
		item, ok := itemsByID[pair.OrderItemID]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Order item %s", pair.OrderItemID))
		}
		breakdown, err := c.ItemRefund(order, item, pair.Quantity, tx)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *breakdown)
		result.TotalSubtotal += breakdown.Subtotal
		result.TotalTax += breakdown.Tax
		result.TotalModifiers += breakdown.Modifiers
		result.TotalTip += breakdown.Tip
		result.TotalSurcharge += breakdown.Surcharge
	}

	result.GrandTotal = result.TotalSubtotal + result.TotalTax + result.TotalModifiers +
		result.TotalTip + result.TotalSurcharge
	if err := money.ValidateMinorSum(
		[]int64{result.TotalSubtotal, result.TotalTax, result.TotalModifiers,
			result.TotalTip, result.TotalSurcharge},
		result.GrandTotal, "multi-item refund breakdown"); err != nil {
		return nil, err
	}

	return result, nil
}

// FullRefundPreview computes the breakdown for returning every line at full
// quantity.
func (c *RefundCalculator) FullRefundPreview(order *entity.Order, tx *entity.PaymentTransaction) (*MultiRefundBreakdown, error) {
	pairs := make([]ItemQuantity, len(order.Items))
	for i := range order.Items {
		pairs[i] = ItemQuantity{OrderItemID: order.Items[i].ID, Quantity: order.Items[i].Quantity}
	}
	return c.MultiItemRefund(order, pairs, tx)
}
