package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	refundService  *service.RefundService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, refundService *service.RefundService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, refundService: refundService}
}

// Capture handles capturing payment for an order
func (h *PaymentHandler) Capture(c *gin.Context) {
	var req struct {
		OrderID   uuid.UUID `json:"order_id" binding:"required"`
		Method    string    `json:"method" binding:"required"`
		Tip       float64   `json:"tip"`
		Surcharge float64   `json:"surcharge"`
		Reference string    `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.CapturePayment(c.Request.Context(), &service.CapturePaymentInput{
		OrderID:   req.OrderID,
		Method:    req.Method,
		Tip:       req.Tip,
		Surcharge: req.Surcharge,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment captured successfully", payment)
}

// Get handles getting a payment with its transactions
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "payment")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", payment)
}

// FullRefund handles refunding the payment's entire order
func (h *PaymentHandler) FullRefund(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, ok := pathID(c, "payment")
	if !ok {
		return
	}

	var req struct {
		Reason        string     `json:"reason"`
		TransactionID *uuid.UUID `json:"transaction_id"`
		Source        string     `json:"source"`
		DeviceInfo    string     `json:"device_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	source := enum.RefundSource(req.Source)
	if req.Source == "" {
		source = enum.RefundSourceAPI
	}

	result, err := h.refundService.ProcessFullOrderRefund(
		c.Request.Context(), id, req.Reason, req.TransactionID, source, *userID, req.DeviceInfo)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Full refund processed successfully", result)
}

// RefundHistory handles listing the refund audit trail for a payment
func (h *PaymentHandler) RefundHistory(c *gin.Context) {
	id, ok := pathID(c, "payment")
	if !ok {
		return
	}

	history, err := h.refundService.GetRefundHistory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Refund history retrieved successfully", history)
}
