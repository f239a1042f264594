package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// RefundItem is the permanent record of one order line refunded in one refund
// transaction. Rows are append-only: created atomically with their owning
// refund transaction and never updated or deleted afterwards. The sum of
// TotalRefundAmount + TaxRefunded + ModifierRefundAmount + TipRefunded +
// SurchargeRefunded across all rows of a refund transaction equals the
// transaction's Amount exactly, in cents.
type RefundItem struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID            uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RefundTransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"refund_transaction_id"`
	OrderItemID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_item_id"`
	QuantityRefunded    int       `gorm:"not null" json:"quantity_refunded"`
	AmountPerUnit       int64     `gorm:"not null" json:"-"`  // Snapshot of PriceAtSale, in cents
	TotalRefundAmount   int64     `gorm:"not null" json:"-"`  // AmountPerUnit * QuantityRefunded, in cents
	TaxRefunded         int64     `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	ModifierRefund      int64     `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TipRefunded         int64     `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	SurchargeRefunded   int64     `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Currency            string    `gorm:"size:3;default:'KES'" json:"currency"` // Copied from the payment
	CreatedAt           time.Time `json:"created_at"`

	// Relationships. OrderItem is never cascaded: the audit row must outlive
	// nothing, the original line is simply never deleted.
	RefundTransaction PaymentTransaction `gorm:"foreignKey:RefundTransactionID" json:"-"`
	OrderItem         OrderItem          `gorm:"foreignKey:OrderItemID" json:"-"`
}

// MarshalJSON converts minor units to decimals at the row's currency scale.
func (ri RefundItem) MarshalJSON() ([]byte, error) {
	type Alias RefundItem
	return json.Marshal(&struct {
		Alias
		AmountPerUnit     float64 `json:"amount_per_unit"`
		TotalRefundAmount float64 `json:"total_refund_amount"`
		TaxRefunded       float64 `json:"tax_refunded"`
		ModifierRefund    float64 `json:"modifier_refund_amount"`
		TipRefunded       float64 `json:"tip_refunded"`
		SurchargeRefunded float64 `json:"surcharge_refunded"`
	}{
		Alias:             Alias(ri),
		AmountPerUnit:     money.FromMinor(ri.Currency, ri.AmountPerUnit),
		TotalRefundAmount: money.FromMinor(ri.Currency, ri.TotalRefundAmount),
		TaxRefunded:       money.FromMinor(ri.Currency, ri.TaxRefunded),
		ModifierRefund:    money.FromMinor(ri.Currency, ri.ModifierRefund),
		TipRefunded:       money.FromMinor(ri.Currency, ri.TipRefunded),
		SurchargeRefunded: money.FromMinor(ri.Currency, ri.SurchargeRefunded),
	})
}

// BeforeCreate generates a UUID before creating a new refund item
func (ri *RefundItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RefundItem model
func (RefundItem) TableName() string {
	return "refund_items"
}

// RefundAuditLog records every attempted refund action, successful or not.
// Rows are written once and never mutated; a failed attempt is logged with
// AuditStatusFailed in its own write after the operation's transaction rolls
// back, so the trail survives failures.
type RefundAuditLog struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	TenantID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PaymentID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"payment_id"`
	RefundTransactionID *uuid.UUID        `gorm:"type:uuid;index" json:"refund_transaction_id,omitempty"`
	Action              enum.RefundAction `gorm:"size:50;not null" json:"action"`
	Source              enum.RefundSource `gorm:"size:20;not null" json:"source"`
	RefundAmount        int64             `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Currency            string            `gorm:"size:3;default:'KES'" json:"currency"` // Copied from the payment
	Reason              string            `gorm:"type:text" json:"reason"`
	Status              enum.AuditStatus  `gorm:"size:20;not null" json:"status"`
	ErrorMessage        string            `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedByID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"processed_by_id"`
	DeviceInfo          string            `gorm:"size:255" json:"device_info,omitempty"`
	ProviderResponse    string            `gorm:"type:text" json:"provider_response,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`

	// Relationships
	Payment     Payment `gorm:"foreignKey:PaymentID" json:"-"`
	ProcessedBy User    `gorm:"foreignKey:ProcessedByID" json:"-"`
}

// MarshalJSON converts minor units to decimals at the row's currency scale.
func (al RefundAuditLog) MarshalJSON() ([]byte, error) {
	type Alias RefundAuditLog
	return json.Marshal(&struct {
		Alias
		RefundAmount float64 `json:"refund_amount"`
	}{
		Alias:        Alias(al),
		RefundAmount: money.FromMinor(al.Currency, al.RefundAmount),
	})
}

// BeforeCreate generates a UUID before creating a new audit log row
func (al *RefundAuditLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RefundAuditLog model
func (RefundAuditLog) TableName() string {
	return "refund_audit_logs"
}
