package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// OrderHandler exposes the order lifecycle refunds hang off: create,
// complete, cancel, and the listings refund agents search.
type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List pages orders filtered by status, customer and date range.
func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.OrderFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		if statusInt, err := strconv.Atoi(statusStr); err == nil {
			status := enum.OrderStatus(statusInt)
			params.Status = &status
		}
	}

	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		if customerID, err := uuid.Parse(customerIDStr); err == nil {
			params.CustomerID = &customerID
		}
	}

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}

	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			params.EndDate = &endDate
		}
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

// Create opens a pending order. Line prices resolve from the catalog
// at the currency the order is created in.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		CustomerID    *uuid.UUID `json:"customer_id"`
		OrderType     string     `json:"order_type"`
		StoreLocation string     `json:"store_location"`
		Currency      string     `json:"currency"`
		Items         []struct {
			ProductID uuid.UUID `json:"product_id" binding:"required"`
			Quantity  int       `json:"quantity" binding:"required"`
			Modifiers float64   `json:"modifiers"`
			Notes     *string   `json:"notes"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]service.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Modifiers: item.Modifiers,
			Notes:     item.Notes,
		}
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		UserID:        *userID,
		CustomerID:    req.CustomerID,
		OrderType:     enum.OrderType(req.OrderType),
		StoreLocation: req.StoreLocation,
		Currency:      req.Currency,
		Items:         items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// Get returns one order with its items.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// Complete marks the order fulfilled once its payment is captured.
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}

	if err := h.orderService.MarkComplete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order marked complete", nil)
}

// Cancel voids a pending order and restocks its items.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order cancelled successfully", nil)
}
