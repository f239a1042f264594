package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// ExchangeSession is the workflow record of one return-and-rebuy exchange.
// BalanceDue is always recomputed as NewOrderAmount - RefundAmount, never set
// directly. NewOrderID/NewPaymentID stay nil until NewOrderCreated is reached.
// Sessions reach a terminal state (Completed or Cancelled) but are never
// deleted.
type ExchangeSession struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	TenantID            uuid.UUID           `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OriginalOrderID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"original_order_id"`
	OriginalPaymentID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"original_payment_id"`
	RefundTransactionID *uuid.UUID          `gorm:"type:uuid" json:"refund_transaction_id,omitempty"`
	NewOrderID          *uuid.UUID          `gorm:"type:uuid;index" json:"new_order_id,omitempty"`
	NewPaymentID        *uuid.UUID          `gorm:"type:uuid" json:"new_payment_id,omitempty"`
	RefundAmount        int64               `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	NewOrderAmount      int64               `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	BalanceDue          int64               `gorm:"default:0" json:"-"` // NewOrderAmount - RefundAmount, in cents
	Currency            string              `gorm:"size:3;default:'KES'" json:"currency"` // Copied from the original order
	Status              enum.ExchangeStatus `gorm:"default:0" json:"session_status"`
	Reason              string              `gorm:"type:text" json:"reason"`
	Notes               string              `gorm:"type:text" json:"notes,omitempty"`
	ProcessedByID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"processed_by_id"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Relationships
	Tenant          Tenant   `gorm:"foreignKey:TenantID" json:"-"`
	OriginalOrder   Order    `gorm:"foreignKey:OriginalOrderID" json:"-"`
	OriginalPayment Payment  `gorm:"foreignKey:OriginalPaymentID" json:"-"`
	NewOrder        *Order   `gorm:"foreignKey:NewOrderID" json:"-"`
	NewPayment      *Payment `gorm:"foreignKey:NewPaymentID" json:"-"`
	ProcessedBy     User     `gorm:"foreignKey:ProcessedByID" json:"-"`
}

// MarshalJSON converts minor units to decimals at the session's currency
// scale.
func (es ExchangeSession) MarshalJSON() ([]byte, error) {
	type Alias ExchangeSession
	return json.Marshal(&struct {
		Alias
		RefundAmount   float64 `json:"refund_amount"`
		NewOrderAmount float64 `json:"new_order_amount"`
		BalanceDue     float64 `json:"balance_due"`
	}{
		Alias:          Alias(es),
		RefundAmount:   money.FromMinor(es.Currency, es.RefundAmount),
		NewOrderAmount: money.FromMinor(es.Currency, es.NewOrderAmount),
		BalanceDue:     money.FromMinor(es.Currency, es.BalanceDue),
	})
}

// RecalculateBalance recomputes BalanceDue from the two amount fields.
// Negative means the customer is owed money, positive means the customer owes.
func (es *ExchangeSession) RecalculateBalance() int64 {
	es.BalanceDue = es.NewOrderAmount - es.RefundAmount
	return es.BalanceDue
}

// BeforeCreate generates a UUID before creating a new exchange session
func (es *ExchangeSession) BeforeCreate(tx *gorm.DB) error {
	if es.ID == uuid.Nil {
		es.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ExchangeSession model
func (ExchangeSession) TableName() string {
	return "exchange_sessions"
}
