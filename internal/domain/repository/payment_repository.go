package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	// GetWithTransactions retrieves a payment with its transactions preloaded
	GetWithTransactions(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) error
}

// PaymentTransactionRepository defines the interface for transaction data operations
type PaymentTransactionRepository interface {
	Create(ctx context.Context, tx *entity.PaymentTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentTransaction, error)
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.PaymentTransaction, error)
}
