package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// Customer is a purchaser whose orders can be refunded or exchanged.
// StoreCredit is a minor-unit balance in Currency, granted by
// store-credit refunds and drawn down against later orders.
type Customer struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Email       *string        `gorm:"size:255" json:"email,omitempty"`
	Phone       *string        `gorm:"size:50" json:"phone,omitempty"`
	TaxID       *string        `gorm:"size:50;column:tax_id" json:"tax_id,omitempty"`
	Address     *string        `gorm:"type:text" json:"address,omitempty"`
	StoreCredit int64          `gorm:"default:0" json:"store_credit"` // Minor units of Currency
	Currency    string         `gorm:"size:3;default:'KES'" json:"currency"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Tenant Tenant  `gorm:"foreignKey:TenantID" json:"-"`
	User   User    `gorm:"foreignKey:UserID" json:"-"`
	Orders []Order `gorm:"foreignKey:CustomerID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

type customerJSON struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	TaxID       *string   `json:"tax_id,omitempty"`
	Address     *string   `json:"address,omitempty"`
	StoreCredit float64   `json:"store_credit"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON renders the store credit balance at the currency's scale.
func (c Customer) MarshalJSON() ([]byte, error) {
	return json.Marshal(customerJSON{
		ID:          c.ID,
		TenantID:    c.TenantID,
		UserID:      c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		TaxID:       c.TaxID,
		Address:     c.Address,
		StoreCredit: money.FromMinor(c.Currency, c.StoreCredit),
		Currency:    c.Currency,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	})
}
