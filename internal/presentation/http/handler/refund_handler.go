package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
)

// RefundHandler handles refund-related HTTP requests
type RefundHandler struct {
	refundService *service.RefundService
}

// NewRefundHandler creates a new refund handler
func NewRefundHandler(refundService *service.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

type refundItemRequest struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required"`
}

type refundRequest struct {
	PaymentID     uuid.UUID           `json:"payment_id" binding:"required"`
	Items         []refundItemRequest `json:"items" binding:"required"`
	Reason        string              `json:"reason"`
	TransactionID *uuid.UUID          `json:"transaction_id"`
	Source        string              `json:"source"`
	DeviceInfo    string              `json:"device_info"`
}

func (r *refundRequest) toItems() []service.ItemQuantity {
	items := make([]service.ItemQuantity, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.ItemQuantity{OrderItemID: item.OrderItemID, Quantity: item.Quantity}
	}
	return items
}

func (r *refundRequest) source() enum.RefundSource {
	if r.Source == "" {
		return enum.RefundSourceAPI
	}
	return enum.RefundSource(r.Source)
}

// Calculate handles previewing a refund without committing anything
func (h *RefundHandler) Calculate(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	breakdown, err := h.refundService.CalculateRefund(
		c.Request.Context(), req.PaymentID, req.toItems(), req.TransactionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Refund calculated successfully", breakdown)
}

// Process handles committing an item-level refund
func (h *RefundHandler) Process(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.refundService.ProcessRefund(c.Request.Context(), &service.ProcessRefundInput{
		PaymentID:     req.PaymentID,
		Items:         req.toItems(),
		Reason:        req.Reason,
		TransactionID: req.TransactionID,
		Source:        req.source(),
		ProcessedBy:   *userID,
		DeviceInfo:    req.DeviceInfo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Refund processed successfully", result)
}
