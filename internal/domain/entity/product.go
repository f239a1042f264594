package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/money"
	"gorm.io/gorm"
)

// Product is a catalog item. Quantity is sellable stock; refunds and
// cancellations restock it, sales and exchanges draw it down. Prices
// are stored in minor units of Currency and only converted to decimals
// at the API boundary.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID    *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	UnitID        *uuid.UUID     `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Slug          string         `gorm:"size:255;unique;not null" json:"slug"`
	Code          string         `gorm:"size:100;unique;not null" json:"code"`
	Quantity      int            `gorm:"default:0" json:"quantity"`
	QuantityAlert int            `gorm:"default:0" json:"quantity_alert"`
	BuyingPrice   int64          `gorm:"default:0" json:"buying_price"`
	SellingPrice  int64          `gorm:"default:0" json:"selling_price"`
	Currency      string         `gorm:"size:3;default:'KES'" json:"currency"`
	Tax           int            `gorm:"default:0" json:"tax"`
	TaxType       enum.TaxType   `gorm:"default:0" json:"tax_type"`
	Notes         *string        `gorm:"type:text" json:"notes,omitempty"`
	ProductImage  *string        `gorm:"size:255" json:"product_image,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Tenant   Tenant    `gorm:"foreignKey:TenantID" json:"-"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Unit     *Unit     `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

// GetBuyingPriceDecimal returns the buying price as a decimal at the
// product currency's scale.
func (p *Product) GetBuyingPriceDecimal() float64 {
	return money.FromMinor(p.Currency, p.BuyingPrice)
}

// GetSellingPriceDecimal returns the selling price as a decimal at the
// product currency's scale.
func (p *Product) GetSellingPriceDecimal() float64 {
	return money.FromMinor(p.Currency, p.SellingPrice)
}

// SetBuyingPriceFromDecimal sets the buying price from a decimal value.
// Currency must already be set.
func (p *Product) SetBuyingPriceFromDecimal(price float64) {
	p.BuyingPrice = money.ToMinor(p.Currency, price)
}

// SetSellingPriceFromDecimal sets the selling price from a decimal value.
// Currency must already be set.
func (p *Product) SetSellingPriceFromDecimal(price float64) {
	p.SellingPrice = money.ToMinor(p.Currency, price)
}

// productJSON shapes API responses. Prices go out as decimals so
// clients never see minor units.
type productJSON struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	CategoryID    *uuid.UUID   `json:"category_id,omitempty"`
	UnitID        *uuid.UUID   `json:"unit_id,omitempty"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Code          string       `json:"code"`
	Quantity      int          `json:"quantity"`
	QuantityAlert int          `json:"quantity_alert"`
	BuyingPrice   float64      `json:"buying_price"`
	SellingPrice  float64      `json:"selling_price"`
	Currency      string       `json:"currency"`
	Tax           int          `json:"tax"`
	TaxType       enum.TaxType `json:"tax_type"`
	Notes         *string      `json:"notes,omitempty"`
	ProductImage  *string      `json:"product_image,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Category      *Category    `json:"category,omitempty"`
	Unit          *Unit        `json:"unit,omitempty"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:            p.ID,
		UserID:        p.UserID,
		CategoryID:    p.CategoryID,
		UnitID:        p.UnitID,
		Name:          p.Name,
		Slug:          p.Slug,
		Code:          p.Code,
		Quantity:      p.Quantity,
		QuantityAlert: p.QuantityAlert,
		BuyingPrice:   p.GetBuyingPriceDecimal(),
		SellingPrice:  p.GetSellingPriceDecimal(),
		Currency:      p.Currency,
		Tax:           p.Tax,
		TaxType:       p.TaxType,
		Notes:         p.Notes,
		ProductImage:  p.ProductImage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Category:      p.Category,
		Unit:          p.Unit,
	})
}

// Category groups products for browsing and reporting. A category with
// products attached cannot be deleted.
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tenant   Tenant    `gorm:"foreignKey:TenantID" json:"-"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Products []Product `gorm:"foreignKey:CategoryID" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Category) TableName() string {
	return "categories"
}

// Unit is a unit of measurement for product quantities, such as piece
// or kilogram.
type Unit struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	ShortCode string         `gorm:"size:50" json:"short_code"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tenant   Tenant    `gorm:"foreignKey:TenantID" json:"-"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Products []Product `gorm:"foreignKey:UnitID" json:"-"`
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (Unit) TableName() string {
	return "units"
}
