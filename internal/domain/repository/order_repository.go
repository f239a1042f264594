package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByInvoiceNo(ctx context.Context, invoiceNo string) (*entity.Order, error)
	// GetWithItems retrieves an order with its line items and customer preloaded
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// OrderItemRepository defines the interface for order line data operations
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error)
	// GetByIDWithOrder retrieves an order line with its owning order preloaded
	GetByIDWithOrder(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error)
	// LockForRefund takes a row-level lock on the order line so concurrent
	// refund validations against it are serialized for the rest of the
	// surrounding transaction.
	LockForRefund(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error)
}
