package handler

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/request"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles listing products (supports both page-based and cursor-based pagination)
func (h *ProductHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	// Check if cursor-based pagination is requested
	if cursor := c.Query("cursor"); cursor != "" || c.Query("limit") != "" {
		h.listWithCursor(c, *userID, isSuperAdmin)
		return
	}

	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.ProductFilterParams{
		ProductFilters: repository.ProductFilters{
			Search:         filter.Search,
			LowStock:       filter.LowStock,
			SkipUserFilter: isSuperAdmin,
		},
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	}

	if filter.CategoryID != "" {
		catID, err := uuid.Parse(filter.CategoryID)
		if err == nil {
			params.CategoryID = &catID
		}
	}

	if filter.UnitID != "" {
		unitID, err := uuid.Parse(filter.UnitID)
		if err == nil {
			params.UnitID = &unitID
		}
	}

	ctx := crossTenantContext(c, isSuperAdmin)

	result, err := h.productService.ListProducts(ctx, *userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// listWithCursor handles listing products with cursor-based pagination
func (h *ProductHandler) listWithCursor(c *gin.Context, userID uuid.UUID, isSuperAdmin bool) {
	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	limit := 15
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	direction := filter.Direction
	if direction == "" {
		direction = "next"
	}

	params := &repository.ProductCursorFilterParams{
		ProductFilters: repository.ProductFilters{
			Search:         filter.Search,
			LowStock:       filter.LowStock,
			SkipUserFilter: isSuperAdmin,
		},
		Cursor: &pagination.CursorParams{
			Cursor:    filter.Cursor,
			Direction: pagination.CursorDirection(direction),
			Limit:     limit,
		},
	}

	if filter.CategoryID != "" {
		catID, err := uuid.Parse(filter.CategoryID)
		if err == nil {
			params.CategoryID = &catID
		}
	}

	if filter.UnitID != "" {
		unitID, err := uuid.Parse(filter.UnitID)
		if err == nil {
			params.UnitID = &unitID
		}
	}

	ctx := crossTenantContext(c, isSuperAdmin)

	result, err := h.productService.ListProductsWithCursor(ctx, userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, 200, "Products retrieved successfully", result)
}

// Create handles creating a product
func (h *ProductHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &service.CreateProductInput{
		UserID:        *userID,
		CategoryID:    req.CategoryID,
		UnitID:        req.UnitID,
		Name:          req.Name,
		Code:          req.Code,
		Quantity:      req.Quantity,
		QuantityAlert: req.QuantityAlert,
		BuyingPrice:   req.BuyingPrice,
		SellingPrice:  req.SellingPrice,
		Currency:      req.Currency,
		Tax:           req.Tax,
		TaxType:       req.TaxType,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// Get handles getting a single product
func (h *ProductHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "Product slug is required")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), slug)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// Update handles updating a product
func (h *ProductHandler) Update(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "Product slug is required")
		return
	}

	var req request.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), &service.UpdateProductInput{
		UserID:        *userID,
		ProductSlug:   slug,
		SkipUserCheck: isSuperAdmin,
		CategoryID:    req.CategoryID,
		UnitID:        req.UnitID,
		Name:          req.Name,
		Code:          req.Code,
		Quantity:      req.Quantity,
		QuantityAlert: req.QuantityAlert,
		BuyingPrice:   req.BuyingPrice,
		SellingPrice:  req.SellingPrice,
		Tax:           req.Tax,
		TaxType:       req.TaxType,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated successfully", product)
}

// Delete handles deleting a product by slug
func (h *ProductHandler) Delete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "Product slug is required")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	if err := h.productService.DeleteProduct(c.Request.Context(), *userID, slug, isSuperAdmin); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetLowStock handles getting low stock products
func (h *ProductHandler) GetLowStock(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	products, err := h.productService.GetLowStockProducts(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock products retrieved successfully", products)
}

// ImportProducts handles bulk product import from an uploaded CSV file
func (h *ProductHandler) ImportProducts(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Import file is required (multipart field 'file')")
		return
	}
	defer file.Close()

	rows, err := parseProductImportCSV(file)
	if err != nil {
		response.BadRequest(c, "Invalid import file: "+err.Error())
		return
	}

	result, err := h.productService.ImportProducts(c.Request.Context(), *userID, rows)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product import processed", result)
}

// parseProductImportCSV reads a CSV with a header row into import rows.
// Column order: name, code, quantity, quantity_alert, buying_price,
// selling_price, tax, tax_type, notes, category, unit.
func parseProductImportCSV(r io.Reader) ([]service.ImportProductRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip the header row
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var rows []service.ImportProductRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(i int) string {
			if i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		intField := func(i int) int {
			v, _ := strconv.Atoi(field(i))
			return v
		}
		floatField := func(i int) float64 {
			v, _ := strconv.ParseFloat(field(i), 64)
			return v
		}

		rows = append(rows, service.ImportProductRow{
			Name:          field(0),
			Code:          field(1),
			Quantity:      intField(2),
			QuantityAlert: intField(3),
			BuyingPrice:   floatField(4),
			SellingPrice:  floatField(5),
			Tax:           intField(6),
			TaxType:       intField(7),
			Notes:         field(8),
			CategoryName:  field(9),
			UnitName:      field(10),
		})
	}

	return rows, nil
}

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List handles listing categories
func (h *CategoryHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)
	page := 1
	perPage := 50
	search := c.Query("search")

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	ctx := crossTenantContext(c, isSuperAdmin)

	result, err := h.categoryService.ListCategories(ctx, *userID, params, search, isSuperAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Categories retrieved successfully", result)
}

// Create handles creating a category
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &service.CreateCategoryInput{
		UserID: *userID,
		Name:   req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Category created successfully", category)
}

// Update handles updating a category
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "category")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), &service.UpdateCategoryInput{
		UserID:       *userID,
		ID:           id,
		IsSuperAdmin: isSuperAdmin,
		Name:         req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category updated successfully", category)
}

// Delete handles deleting a category
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "category")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), *userID, id, isSuperAdmin); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// UnitHandler handles unit-related HTTP requests
type UnitHandler struct {
	unitService *service.UnitService
}

// NewUnitHandler creates a new unit handler
func NewUnitHandler(unitService *service.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// List handles listing units
func (h *UnitHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)
	params := &pagination.PaginationParams{
		Page:    1,
		PerPage: 50,
	}
	search := c.Query("search")

	ctx := crossTenantContext(c, isSuperAdmin)

	result, err := h.unitService.ListUnits(ctx, *userID, params, search, isSuperAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Units retrieved successfully", result)
}

// Create handles creating a unit
func (h *UnitHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required"`
		ShortCode string `json:"short_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	unit, err := h.unitService.CreateUnit(c.Request.Context(), &service.CreateUnitInput{
		UserID:    *userID,
		Name:      req.Name,
		ShortCode: req.ShortCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Unit created successfully", unit)
}

// Update handles updating a unit
func (h *UnitHandler) Update(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "unit")
	if !ok {
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required"`
		ShortCode string `json:"short_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	unit, err := h.unitService.UpdateUnit(c.Request.Context(), &service.UpdateUnitInput{
		UserID:       *userID,
		ID:           id,
		IsSuperAdmin: isSuperAdmin,
		Name:         req.Name,
		ShortCode:    req.ShortCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unit updated successfully", unit)
}

// Delete handles deleting a unit
func (h *UnitHandler) Delete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "unit")
	if !ok {
		return
	}

	if err := h.unitService.DeleteUnit(c.Request.Context(), *userID, id, isSuperAdmin); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
