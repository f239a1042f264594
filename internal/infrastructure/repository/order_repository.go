package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Customer").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*entity.Order, error) {
	var order entity.Order
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&order, "invoice_no = ?", invoiceNo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(order).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", id).
		Update("order_status", status).Error
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.Order{}).Scopes(TenantScope(ctx))

	if params.Search != "" {
		query = query.Where("invoice_no ILIKE ?", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("order_status = ?", *params.Status)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.StartDate != nil {
		query = query.Where("order_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("order_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
	sortOrder := "DESC"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Customer").
		Order(sortBy + " " + sortOrder).
		Find(&orders).Error

	return orders, total, err
}

type orderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository creates a new order item repository
func NewOrderItemRepository(db *gorm.DB) domainRepo.OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) CreateBatch(ctx context.Context, items []entity.OrderItem) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&items).Error
}

func (r *orderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	var item entity.OrderItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *orderItemRepository) GetByIDWithOrder(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	var item entity.OrderItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Order").
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error) {
	var items []entity.OrderItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Product").
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// LockForRefund reads the order line under FOR UPDATE. The lock serializes
// the already-refunded check and the refund item write for that line, closing
// the window where two concurrent partial refunds could together exceed the
// ordered quantity. Must be called inside a unit of work.
func (r *orderItemRepository) LockForRefund(ctx context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	var item entity.OrderItem
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}
