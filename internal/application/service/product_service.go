package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/pagination"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// defaultCurrency is the fallback ISO code when none is supplied.
const defaultCurrency = "KES"

// normalizeCurrency uppercases a client-supplied currency code, falling
// back to the default when empty.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultCurrency
	}
	return code
}

// ProductService maintains the catalog that order lines, and through
// them refund calculations, resolve against.
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	unitRepo     repository.UnitRepository
}

// NewProductService creates a new product service
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	unitRepo repository.UnitRepository,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		unitRepo:     unitRepo,
	}
}

// ensureCodeAvailable rejects a product code already taken by another
// product. exclude carries the product being updated so it does not
// collide with itself.
func (s *ProductService) ensureCodeAvailable(ctx context.Context, code string, exclude uuid.UUID) error {
	existing, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != exclude {
		return apperror.NewConflictError("Product code already exists")
	}
	return nil
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	UserID        uuid.UUID
	CategoryID    *uuid.UUID
	UnitID        *uuid.UUID
	Name          string
	Code          string
	Quantity      int
	QuantityAlert int
	BuyingPrice   float64
	SellingPrice  float64
	Currency      string
	Tax           int
	TaxType       int
	Notes         *string
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	code := input.Code
	if code == "" {
		code = utils.GenerateProductCode()
	}
	if err := s.ensureCodeAvailable(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	product := &entity.Product{
		TenantID:      tenantID,
		UserID:        input.UserID,
		CategoryID:    input.CategoryID,
		UnitID:        input.UnitID,
		Name:          input.Name,
		Slug:          utils.Slugify(input.Name),
		Code:          code,
		Quantity:      input.Quantity,
		QuantityAlert: input.QuantityAlert,
		// Currency is fixed at creation. Stored prices are minor units of
		// this currency, so changing it later would silently rescale them.
		Currency: normalizeCurrency(input.Currency),
		Tax:      input.Tax,
		TaxType:  enum.TaxType(input.TaxType),
		Notes:    input.Notes,
	}
	product.SetBuyingPriceFromDecimal(input.BuyingPrice)
	product.SetSellingPriceFromDecimal(input.SellingPrice)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(ctx, product.ID)
}

// GetProduct retrieves a product by slug
func (s *ProductService) GetProduct(ctx context.Context, slug string) (*entity.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with filtering
func (s *ProductService) ListProducts(ctx context.Context, userID uuid.UUID, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// ListProductsWithCursor lists products with cursor-based pagination
func (s *ProductService) ListProductsWithCursor(ctx context.Context, userID uuid.UUID, params *repository.ProductCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Product], error) {
	products, err := s.productRepo.ListWithCursor(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	cursorPag, items := pagination.NewCursorPagination(products, params.Cursor.Limit,
		func(p entity.Product) string { return p.ID.String() },
		func(p entity.Product) time.Time { return p.CreatedAt },
	)
	cursorPag.HasPrev = params.Cursor.Cursor != ""

	return pagination.NewCursorPaginatedResult(items, cursorPag), nil
}

// UpdateProductInput represents the update product input
type UpdateProductInput struct {
	UserID        uuid.UUID
	ProductSlug   string
	SkipUserCheck bool // If true (super-admin), skip ownership check
	CategoryID    *uuid.UUID
	UnitID        *uuid.UUID
	Name          *string
	Code          *string
	Quantity      *int
	QuantityAlert *int
	BuyingPrice   *float64
	SellingPrice  *float64
	Tax           *int
	TaxType       *int
	Notes         *string
}

// UpdateProduct updates a product. The currency is deliberately not
// updatable; refund math reads prices at the product's creation scale.
func (s *ProductService) UpdateProduct(ctx context.Context, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, input.ProductSlug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	// Ensure user owns the product (unless super-admin)
	if !input.SkipUserCheck && product.UserID != input.UserID {
		return nil, apperror.ErrForbidden
	}

	if input.Code != nil && *input.Code != product.Code {
		if err := s.ensureCodeAvailable(ctx, *input.Code, product.ID); err != nil {
			return nil, err
		}
		product.Code = *input.Code
	}

	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.UnitID != nil {
		product.UnitID = input.UnitID
	}
	if input.Name != nil {
		product.Name = *input.Name
		product.Slug = utils.Slugify(*input.Name)
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.QuantityAlert != nil {
		product.QuantityAlert = *input.QuantityAlert
	}
	if input.BuyingPrice != nil {
		product.SetBuyingPriceFromDecimal(*input.BuyingPrice)
	}
	if input.SellingPrice != nil {
		product.SetSellingPriceFromDecimal(*input.SellingPrice)
	}
	if input.Tax != nil {
		product.Tax = *input.Tax
	}
	if input.TaxType != nil {
		product.TaxType = enum.TaxType(*input.TaxType)
	}
	if input.Notes != nil {
		product.Notes = input.Notes
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(ctx, product.ID)
}

// DeleteProduct deletes a product
// If skipOwnerCheck is true (e.g., for super-admins), ownership check is bypassed
func (s *ProductService) DeleteProduct(ctx context.Context, userID uuid.UUID, slug string, skipOwnerCheck bool) error {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if product == nil {
		return apperror.NewNotFoundError("Product")
	}

	if !skipOwnerCheck && product.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.productRepo.Delete(ctx, product.ID)
}

// GetLowStockProducts returns products with low stock
func (s *ProductService) GetLowStockProducts(ctx context.Context, userID uuid.UUID) ([]entity.Product, error) {
	return s.productRepo.GetLowStock(ctx, userID)
}

// ImportProductRow represents a single row from the import file
type ImportProductRow struct {
	Name          string
	Code          string
	Quantity      int
	QuantityAlert int
	BuyingPrice   float64
	SellingPrice  float64
	Currency      string
	Tax           int
	TaxType       int
	Notes         string
	CategoryName  string
	UnitName      string
}

// ImportResult contains the result of a product import operation
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError describes an error for a specific row during import
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// importLookup resolves category and unit names to IDs for the tenant
// doing the import.
type importLookup struct {
	categories map[string]*uuid.UUID
	units      map[string]*uuid.UUID
}

func (s *ProductService) buildImportLookup(ctx context.Context) importLookup {
	lookup := importLookup{
		categories: make(map[string]*uuid.UUID),
		units:      make(map[string]*uuid.UUID),
	}

	wide := &pagination.PaginationParams{Page: 1, PerPage: 1000}
	categories, _, _ := s.categoryRepo.List(ctx, uuid.Nil, wide, "", true)
	for i := range categories {
		lookup.categories[strings.ToLower(categories[i].Name)] = &categories[i].ID
	}
	units, _, _ := s.unitRepo.List(ctx, uuid.Nil, wide, "", true)
	for i := range units {
		lookup.units[strings.ToLower(units[i].Name)] = &units[i].ID
	}
	return lookup
}

// ImportProducts validates and bulk-creates products from parsed import
// rows. Rows fail individually; one bad row does not sink the batch.
func (s *ProductService) ImportProducts(ctx context.Context, userID uuid.UUID, rows []ImportProductRow) (*ImportResult, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	result := &ImportResult{TotalRows: len(rows)}
	var rowErrors []ImportRowError

	lookup := s.buildImportLookup(ctx)

	// Codes already claimed earlier in this file, keyed to their row
	seenCodes := make(map[string]int)

	var validProducts []entity.Product

	for i, row := range rows {
		rowNum := i + 2 // +2 because row 1 is the header, data starts at row 2

		if strings.TrimSpace(row.Name) == "" {
			rowErrors = append(rowErrors, ImportRowError{Row: rowNum, Field: "name", Message: "Name is required"})
			continue
		}

		code := strings.TrimSpace(row.Code)
		if code == "" {
			code = utils.GenerateProductCode()
		}

		if prevRow, exists := seenCodes[code]; exists {
			rowErrors = append(rowErrors, ImportRowError{
				Row:     rowNum,
				Field:   "code",
				Message: fmt.Sprintf("Duplicate code '%s' (same as row %d)", code, prevRow),
			})
			continue
		}

		existing, err := s.productRepo.GetByCode(ctx, code)
		if err != nil {
			rowErrors = append(rowErrors, ImportRowError{Row: rowNum, Field: "code", Message: "Error checking code: " + err.Error()})
			continue
		}
		if existing != nil {
			rowErrors = append(rowErrors, ImportRowError{
				Row:     rowNum,
				Field:   "code",
				Message: fmt.Sprintf("Product code '%s' already exists", code),
			})
			continue
		}

		seenCodes[code] = rowNum

		var categoryID *uuid.UUID
		if row.CategoryName != "" {
			categoryID = lookup.categories[strings.ToLower(strings.TrimSpace(row.CategoryName))]
		}
		var unitID *uuid.UUID
		if row.UnitName != "" {
			unitID = lookup.units[strings.ToLower(strings.TrimSpace(row.UnitName))]
		}

		product := entity.Product{
			TenantID:      tenantID,
			UserID:        userID,
			CategoryID:    categoryID,
			UnitID:        unitID,
			Name:          strings.TrimSpace(row.Name),
			// Random suffix keeps slugs unique when a file repeats a name
			Slug:          utils.Slugify(row.Name) + "-" + strings.ToLower(uuid.New().String()[:8]),
			Code:          code,
			Quantity:      row.Quantity,
			QuantityAlert: row.QuantityAlert,
			Currency:      normalizeCurrency(row.Currency),
			Tax:           row.Tax,
			TaxType:       enum.TaxType(row.TaxType),
		}
		product.SetBuyingPriceFromDecimal(row.BuyingPrice)
		product.SetSellingPriceFromDecimal(row.SellingPrice)

		if row.Notes != "" {
			notes := row.Notes
			product.Notes = &notes
		}

		validProducts = append(validProducts, product)
	}

	if len(validProducts) > 0 {
		if err := s.productRepo.CreateBatch(ctx, validProducts); err != nil {
			return nil, apperror.NewAppError(500, "Failed to import products: "+err.Error())
		}
	}

	result.Successful = len(validProducts)
	result.Failed = len(rowErrors)
	result.Errors = rowErrors

	return result, nil
}
