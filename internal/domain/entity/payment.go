package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// Payment represents the payment record attached to an order. The amounts of
// money actually moved live on its transactions; the payment itself carries
// the rollup status.
type Payment struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"order_id"`
	Status    enum.PaymentStatus `gorm:"default:0" json:"status"`
	Method    string             `gorm:"size:50" json:"method"`
	Currency  string             `gorm:"size:3;default:'KES'" json:"currency"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	DeletedAt gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Tenant       Tenant               `gorm:"foreignKey:TenantID" json:"-"`
	Order        Order                `gorm:"foreignKey:OrderID" json:"-"`
	Transactions []PaymentTransaction `gorm:"foreignKey:PaymentID" json:"transactions,omitempty"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// LatestSuccessfulTransaction returns the most recent successful transaction
// of the given type, or nil if none exists. Transactions must already be
// loaded on the payment.
func (p *Payment) LatestSuccessfulTransaction(txType enum.TransactionType) *PaymentTransaction {
	var latest *PaymentTransaction
	for i := range p.Transactions {
		t := &p.Transactions[i]
		if t.Type != txType || t.Status != enum.TransactionStatusSuccessful {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	return latest
}

// PaymentTransaction is one movement of money against a payment: the original
// sale capture or a refund. Tip and surcharge are recorded on the sale capture
// and proportionally returned by refunds.
type PaymentTransaction struct {
	ID        uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PaymentID uuid.UUID              `gorm:"type:uuid;not null;index" json:"payment_id"`
	Type      enum.TransactionType   `gorm:"default:0" json:"type"`
	Status    enum.TransactionStatus `gorm:"default:0" json:"status"`
	Amount    int64                  `gorm:"not null" json:"-"`  // Stored in cents, excluded from JSON
	Tip       int64                  `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Surcharge int64                  `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Currency  string                 `gorm:"size:3;default:'KES'" json:"currency"` // Copied from the payment
	Reference string                 `gorm:"size:100" json:"reference,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	// Relationships
	Payment Payment `gorm:"foreignKey:PaymentID" json:"-"`
}

// MarshalJSON converts minor units to decimals at the transaction's currency
// scale.
func (pt PaymentTransaction) MarshalJSON() ([]byte, error) {
	type Alias PaymentTransaction
	return json.Marshal(&struct {
		Alias
		Amount    float64 `json:"amount"`
		Tip       float64 `json:"tip"`
		Surcharge float64 `json:"surcharge"`
	}{
		Alias:     Alias(pt),
		Amount:    money.FromMinor(pt.Currency, pt.Amount),
		Tip:       money.FromMinor(pt.Currency, pt.Tip),
		Surcharge: money.FromMinor(pt.Currency, pt.Surcharge),
	})
}

// BeforeCreate generates a UUID before creating a new payment transaction
func (pt *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentTransaction model
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
