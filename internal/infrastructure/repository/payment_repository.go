package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetWithTransactions(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Transactions").
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Transactions").
		First(&payment, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

type paymentTransactionRepository struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository creates a new payment transaction repository
func NewPaymentTransactionRepository(db *gorm.DB) domainRepo.PaymentTransactionRepository {
	return &paymentTransactionRepository{db: db}
}

func (r *paymentTransactionRepository) Create(ctx context.Context, tx *entity.PaymentTransaction) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(tx).Error
}

func (r *paymentTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentTransaction, error) {
	var tx entity.PaymentTransaction
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tx, err
}

func (r *paymentTransactionRepository) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.PaymentTransaction, error) {
	var txs []entity.PaymentTransaction
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}
