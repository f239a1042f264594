package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"gorm.io/gorm"
)

type refundItemRepository struct {
	db *gorm.DB
}

// NewRefundItemRepository creates a new refund item repository
func NewRefundItemRepository(db *gorm.DB) domainRepo.RefundItemRepository {
	return &refundItemRepository{db: db}
}

func (r *refundItemRepository) CreateBatch(ctx context.Context, items []entity.RefundItem) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&items).Error
}

func (r *refundItemRepository) ListByTransactionID(ctx context.Context, refundTransactionID uuid.UUID) ([]entity.RefundItem, error) {
	var items []entity.RefundItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("refund_transaction_id = ?", refundTransactionID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *refundItemRepository) ListByOrderItemID(ctx context.Context, orderItemID uuid.UUID) ([]entity.RefundItem, error) {
	var items []entity.RefundItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *refundItemRepository) SumRefundedQuantity(ctx context.Context, orderItemID uuid.UUID) (int, error) {
	var sum int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&entity.RefundItem{}).
		Scopes(TenantScope(ctx)).
		Where("order_item_id = ?", orderItemID).
		Select("COALESCE(SUM(quantity_refunded), 0)").
		Scan(&sum).Error
	return int(sum), err
}

type refundAuditLogRepository struct {
	db *gorm.DB
}

// NewRefundAuditLogRepository creates a new refund audit log repository
func NewRefundAuditLogRepository(db *gorm.DB) domainRepo.RefundAuditLogRepository {
	return &refundAuditLogRepository{db: db}
}

func (r *refundAuditLogRepository) Create(ctx context.Context, log *entity.RefundAuditLog) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(log).Error
}

func (r *refundAuditLogRepository) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.RefundAuditLog, error) {
	var logs []entity.RefundAuditLog
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
