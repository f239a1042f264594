package request

import "github.com/google/uuid"

// CreateProductRequest carries a new catalog item. Prices arrive as
// decimals and are stored in minor units of Currency; when Currency is
// omitted the tenant default applies.
type CreateProductRequest struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	UnitID        *uuid.UUID `json:"unit_id"`
	Name          string     `json:"name" binding:"required,min=2,max=255"`
	Code          string     `json:"code" binding:"omitempty,max=100"`
	Quantity      int        `json:"quantity" binding:"min=0"`
	QuantityAlert int        `json:"quantity_alert" binding:"min=0"`
	BuyingPrice   float64    `json:"buying_price" binding:"min=0"`
	SellingPrice  float64    `json:"selling_price" binding:"min=0"`
	Currency      string     `json:"currency" binding:"omitempty,len=3,uppercase"`
	Tax           int        `json:"tax" binding:"min=0,max=100"`
	TaxType       int        `json:"tax_type" binding:"min=0,max=1"`
	Notes         *string    `json:"notes"`
}

// UpdateProductRequest patches a catalog item. Nil fields are left
// untouched. Currency is fixed at creation and cannot be patched.
type UpdateProductRequest struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	UnitID        *uuid.UUID `json:"unit_id"`
	Name          *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Code          *string    `json:"code" binding:"omitempty,min=1,max=100"`
	Quantity      *int       `json:"quantity" binding:"omitempty,min=0"`
	QuantityAlert *int       `json:"quantity_alert" binding:"omitempty,min=0"`
	BuyingPrice   *float64   `json:"buying_price" binding:"omitempty,min=0"`
	SellingPrice  *float64   `json:"selling_price" binding:"omitempty,min=0"`
	Tax           *int       `json:"tax" binding:"omitempty,min=0,max=100"`
	TaxType       *int       `json:"tax_type" binding:"omitempty,min=0,max=1"`
	Notes         *string    `json:"notes"`
}

// ProductFilterRequest narrows catalog listings. Page/PerPage select
// offset pagination; Cursor/Direction/Limit select keyset pagination.
type ProductFilterRequest struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	UnitID     string `form:"unit_id"`
	LowStock   bool   `form:"low_stock"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`

	// Cursor-based pagination
	Cursor    string `form:"cursor"`
	Direction string `form:"direction"`
	Limit     int    `form:"limit"`
}
