package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// crossTenantContext lets super admins list across tenants, or pin the
// listing to one tenant via the tenant_id query parameter.
func crossTenantContext(c *gin.Context, isSuperAdmin bool) context.Context {
	ctx := c.Request.Context()
	if !isSuperAdmin {
		return ctx
	}
	ctx = infraRepo.WithSkipTenantScope(ctx, true)
	if tenantIDStr := c.Query("tenant_id"); tenantIDStr != "" {
		if tenantID, err := uuid.Parse(tenantIDStr); err == nil {
			ctx = infraRepo.WithTenant(ctx, tenantID)
			ctx = infraRepo.WithSkipTenantScope(ctx, false)
		}
	}
	return ctx
}

// List handles listing customers (supports both page-based and cursor-based pagination)
func (h *CustomerHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	search := c.Query("search")
	isSuperAdmin := IsSuperAdmin(c)
	ctx := crossTenantContext(c, isSuperAdmin)

	// Cursor-based pagination when a cursor or limit is on the query
	if cursor := c.Query("cursor"); cursor != "" || c.Query("limit") != "" {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))
		params := &pagination.CursorParams{
			Cursor:    c.Query("cursor"),
			Direction: pagination.CursorDirection(c.DefaultQuery("direction", "next")),
			Limit:     limit,
		}

		result, err := h.customerService.ListCustomersWithCursor(ctx, *userID, params, search, isSuperAdmin)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, 200, "Customers retrieved successfully", result)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.customerService.ListCustomers(ctx, *userID, params, search, isSuperAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Customers retrieved successfully", result)
}

// Create handles creating a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name     string  `json:"name" binding:"required"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		TaxID    *string `json:"tax_id"`
		Address  *string `json:"address"`
		Currency string  `json:"currency" binding:"omitempty,len=3,uppercase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), &service.CreateCustomerInput{
		UserID:   *userID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		TaxID:    req.TaxID,
		Address:  req.Address,
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Customer created successfully", customer)
}

// Get handles getting a single customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// Update handles updating a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "customer")
	if !ok {
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		TaxID   *string `json:"tax_id"`
		Address *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), &service.UpdateCustomerInput{
		UserID:       *userID,
		ID:           id,
		IsSuperAdmin: isSuperAdmin,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		TaxID:        req.TaxID,
		Address:      req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", customer)
}

// Credit handles adjusting a customer's store credit balance
func (h *CustomerHandler) Credit(c *gin.Context) {
	id, ok := pathID(c, "customer")
	if !ok {
		return
	}

	var req struct {
		// Decimal amount in the customer's currency. Negative redeems credit.
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.customerService.GrantStoreCredit(c.Request.Context(), id, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Store credit updated successfully", customer)
}

// Delete handles deleting a customer
func (h *CustomerHandler) Delete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	isSuperAdmin := IsSuperAdmin(c)

	id, ok := pathID(c, "customer")
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), *userID, id, isSuperAdmin); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
