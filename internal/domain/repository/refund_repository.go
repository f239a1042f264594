package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
)

// RefundItemRepository defines the interface for refund item audit rows.
// Rows are append-only, so there are no update or delete operations.
type RefundItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.RefundItem) error
	ListByTransactionID(ctx context.Context, refundTransactionID uuid.UUID) ([]entity.RefundItem, error)
	ListByOrderItemID(ctx context.Context, orderItemID uuid.UUID) ([]entity.RefundItem, error)
	// SumRefundedQuantity returns the cumulative quantity already refunded
	// for an order line across all prior refund transactions.
	SumRefundedQuantity(ctx context.Context, orderItemID uuid.UUID) (int, error)
}

// RefundAuditLogRepository defines the interface for the refund audit trail.
// Rows are append-only, so there are no update or delete operations.
type RefundAuditLogRepository interface {
	Create(ctx context.Context, log *entity.RefundAuditLog) error
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.RefundAuditLog, error)
}
