package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// Order represents a sales order. All money columns are stored in minor units
// (cents) and converted to decimals at the JSON boundary.
type Order struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	CustomerID    *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	OrderType     enum.OrderType   `gorm:"size:20;default:'POS'" json:"order_type"`
	OrderDate     time.Time        `gorm:"not null" json:"order_date"`
	OrderStatus   enum.OrderStatus `gorm:"default:0" json:"order_status"`
	StoreLocation string           `gorm:"size:255" json:"store_location,omitempty"`
	SubTotal      int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TaxTotal      int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	GrandTotal    int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Currency      string           `gorm:"size:3;default:'KES'" json:"currency"`
	InvoiceNo     string           `gorm:"size:100;unique;not null" json:"invoice_no"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Tenant   Tenant      `gorm:"foreignKey:TenantID" json:"-"`
	User     User        `gorm:"foreignKey:UserID" json:"-"`
	Customer *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// MarshalJSON converts minor units to decimals at the order's own currency
// scale, so a JPY order renders whole yen and a KWD order three digits.
func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	return json.Marshal(&struct {
		Alias
		SubTotal   float64 `json:"sub_total"`
		TaxTotal   float64 `json:"tax_total"`
		GrandTotal float64 `json:"grand_total"`
	}{
		Alias:      Alias(o),
		SubTotal:   money.FromMinor(o.Currency, o.SubTotal),
		TaxTotal:   money.FromMinor(o.Currency, o.TaxTotal),
		GrandTotal: money.FromMinor(o.Currency, o.GrandTotal),
	})
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line on an order. PriceAtSale and TaxAmount are snapshots
// frozen at sale time; refund math never re-prices them.
type OrderItem struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       int            `gorm:"not null" json:"quantity"`
	PriceAtSale    int64          `gorm:"not null" json:"-"`  // Stored in cents, excluded from JSON
	TaxAmount      int64          `gorm:"default:0" json:"-"` // Per-line tax in cents; 0 on legacy rows
	ModifiersTotal int64          `gorm:"default:0" json:"-"` // Modifier charges in cents
	Currency       string         `gorm:"size:3;default:'KES'" json:"currency"` // Copied from the order at sale time
	Notes          *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// MarshalJSON converts minor units to decimals at the line's currency scale.
func (oi OrderItem) MarshalJSON() ([]byte, error) {
	type Alias OrderItem
	return json.Marshal(&struct {
		Alias
		PriceAtSale    float64 `json:"price_at_sale"`
		TaxAmount      float64 `json:"tax_amount"`
		ModifiersTotal float64 `json:"modifiers_total"`
		LineTotal      float64 `json:"line_total"`
	}{
		Alias:          Alias(oi),
		PriceAtSale:    money.FromMinor(oi.Currency, oi.PriceAtSale),
		TaxAmount:      money.FromMinor(oi.Currency, oi.TaxAmount),
		ModifiersTotal: money.FromMinor(oi.Currency, oi.ModifiersTotal),
		LineTotal:      money.FromMinor(oi.Currency, oi.LineSubtotal()),
	})
}

// LineSubtotal returns the full line subtotal (price * quantity) in cents.
func (oi *OrderItem) LineSubtotal() int64 {
	return oi.PriceAtSale * int64(oi.Quantity)
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
