package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
)

// ExchangeHandler handles exchange-related HTTP requests
type ExchangeHandler struct {
	exchangeService *service.ExchangeService
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(exchangeService *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// Initiate handles starting an exchange for items on an existing order
func (h *ExchangeHandler) Initiate(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		OriginalOrderID uuid.UUID           `json:"original_order_id" binding:"required"`
		Items           []refundItemRequest `json:"items" binding:"required"`
		Reason          string              `json:"reason"`
		Source          string              `json:"source"`
		DeviceInfo      string              `json:"device_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]service.ItemQuantity, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.ItemQuantity{OrderItemID: item.OrderItemID, Quantity: item.Quantity}
	}

	source := enum.RefundSource(req.Source)
	if req.Source == "" {
		source = enum.RefundSourceAPI
	}

	session, err := h.exchangeService.InitiateExchange(c.Request.Context(), &service.InitiateExchangeInput{
		OriginalOrderID: req.OriginalOrderID,
		ItemsToReturn:   items,
		Reason:          req.Reason,
		Source:          source,
		ProcessedBy:     *userID,
		DeviceInfo:      req.DeviceInfo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Exchange initiated successfully", session)
}

// CreateNewOrder handles creating the replacement order for an exchange
func (h *ExchangeHandler) CreateNewOrder(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	sessionID, ok := pathID(c, "exchange")
	if !ok {
		return
	}

	var req struct {
		CustomerID    *uuid.UUID `json:"customer_id"`
		OrderType     string     `json:"order_type"`
		StoreLocation string     `json:"store_location"`
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

	session, err := h.exchangeService.CreateNewOrder(c.Request.Context(), &service.CreateNewOrderInput{
		SessionID:     sessionID,
		Items:         items,
		CustomerID:    req.CustomerID,
		OrderType:     enum.OrderType(req.OrderType),
		StoreLocation: req.StoreLocation,
		ProcessedBy:   *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Exchange order created successfully", session)
}

// Complete handles settling the exchange balance
func (h *ExchangeHandler) Complete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	sessionID, ok := pathID(c, "exchange")
	if !ok {
		return
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	// Body is optional: an even exchange or a refund needs no payment method
	_ = c.ShouldBindJSON(&req)

	result, err := h.exchangeService.CompleteExchange(c.Request.Context(), sessionID, req.PaymentMethod, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Exchange completed successfully", result)
}

// Cancel handles cancelling a non-terminal exchange
func (h *ExchangeHandler) Cancel(c *gin.Context) {
	sessionID, ok := pathID(c, "exchange")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	session, err := h.exchangeService.CancelExchange(c.Request.Context(), sessionID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Exchange cancelled successfully", session)
}

// Get handles getting the full exchange summary
func (h *ExchangeHandler) Get(c *gin.Context) {
	sessionID, ok := pathID(c, "exchange")
	if !ok {
		return
	}

	summary, err := h.exchangeService.GetExchangeSummary(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Exchange retrieved successfully", summary)
}

// Balance handles recomputing and returning the exchange balance
func (h *ExchangeHandler) Balance(c *gin.Context) {
	sessionID, ok := pathID(c, "exchange")
	if !ok {
		return
	}

	session, err := h.exchangeService.CalculateBalance(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Exchange balance calculated successfully", session)
}
