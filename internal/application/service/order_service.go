package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/money"
	"github.com/sangkips/refundify-api/pkg/pagination"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// OrderService handles order creation and pricing. It freezes each line's
// price and tax at sale time; the refund engine never re-prices, it only
// reads those snapshots.
type OrderService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	productRepo   repository.ProductRepository
	customerRepo  repository.CustomerRepository
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		productRepo:   productRepo,
		customerRepo:  customerRepo,
	}
}

// OrderItemInput represents an item in an order
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Modifiers float64 // Decimal modifier charges for the line
	Notes     *string
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	UserID        uuid.UUID
	CustomerID    *uuid.UUID
	OrderType     enum.OrderType
	StoreLocation string
	Currency      string
	Items         []OrderItemInput
}

// CreateOrder creates a new order with its line items. Pricing comes from the
// product catalog at the moment of sale and is stored per line.
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("Order must contain at least one item")
	}

	// Validate customer if provided
	if input.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
	}

	// Batch fetch all products in one query (prevents N+1)
	productIDs := make([]uuid.UUID, len(input.Items))
	for i, item := range input.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	// Order currency defaults to the catalog currency of the first line's
	// product so PriceAtSale snapshots keep their scale.
	currency := input.Currency
	if currency == "" {
		for _, item := range input.Items {
			if p, ok := productMap[item.ProductID]; ok && p.Currency != "" {
				currency = p.Currency
				break
			}
		}
	}
	currency = normalizeCurrency(currency)

	var subTotal, taxTotal int64
	orderItems := make([]entity.OrderItem, 0, len(input.Items))
	stockDecrements := make(map[uuid.UUID]int)

	for _, item := range input.Items {
		product, exists := productMap[item.ProductID]
		if !exists {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductID))
		}
		if item.Quantity <= 0 {
			return nil, apperror.NewBadRequestError(
				fmt.Sprintf("Invalid quantity for product %s", product.Name))
		}
		if product.Currency != "" && product.Currency != currency {
			return nil, apperror.NewBadRequestError(
				fmt.Sprintf("Product %s is priced in %s, not %s", product.Name, product.Currency, currency))
		}

		lineSubtotal := product.SellingPrice * int64(item.Quantity)
		modifiersCents := money.ToMinor(currency, item.Modifiers)

		// Per-line tax snapshot, recorded at sale time so refunds never
		// depend on the current catalog rate.
		lineTax := product.TaxType.TaxPortion(lineSubtotal, product.Tax)

		subTotal += lineSubtotal + modifiersCents
		taxTotal += lineTax

		orderItems = append(orderItems, entity.OrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			PriceAtSale:    product.SellingPrice,
			TaxAmount:      lineTax,
			ModifiersTotal: modifiersCents,
			Currency:       currency,
			Notes:          item.Notes,
		})

		stockDecrements[product.ID] = stockDecrements[product.ID] + item.Quantity
	}

	// Atomically decrement stock - race-condition safe. If any product has
	// insufficient stock, the entire operation fails.
	failedIDs, err := s.productRepo.AtomicDecrementBatch(ctx, stockDecrements)
	if err != nil {
		return nil, err
	}
	if len(failedIDs) > 0 {
		var failedNames []string
		for _, id := range failedIDs {
			if product, exists := productMap[id]; exists {
				failedNames = append(failedNames, product.Name)
			}
		}
		return nil, apperror.NewAppError(400, fmt.Sprintf("Insufficient stock for: %v", failedNames))
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = enum.OrderTypePOS
	}

	order := &entity.Order{
		TenantID:      tenantID,
		UserID:        input.UserID,
		CustomerID:    input.CustomerID,
		OrderType:     orderType,
		OrderDate:     time.Now(),
		OrderStatus:   enum.OrderStatusPending,
		StoreLocation: input.StoreLocation,
		SubTotal:      subTotal,
		TaxTotal:      taxTotal,
		GrandTotal:    subTotal + taxTotal,
		Currency:      currency,
		InvoiceNo:     utils.GenerateInvoiceNo("INV-"),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// Stock was already decremented - restore it
		_ = s.productRepo.AtomicIncrementBatch(ctx, stockDecrements)
		return nil, err
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}

	if err := s.orderItemRepo.CreateBatch(ctx, orderItems); err != nil {
		_ = s.productRepo.AtomicIncrementBatch(ctx, stockDecrements)
		return nil, err
	}

	return s.orderRepo.GetWithItems(ctx, order.ID)
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders lists orders with filtering
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(orders, pag), nil
}

// MarkComplete marks an order complete once its payment has been captured
func (s *OrderService) MarkComplete(ctx context.Context, id uuid.UUID) error {
	return s.orderRepo.UpdateStatus(ctx, id, enum.OrderStatusComplete)
}

// CancelOrder cancels an order and restores stock
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return apperror.NewNotFoundError("Order")
	}

	if order.OrderStatus == enum.OrderStatusCancel {
		return apperror.NewAppError(400, "Order is already cancelled")
	}

	// Build increment map for stock restoration
	stockIncrements := make(map[uuid.UUID]int)
	for _, item := range order.Items {
		stockIncrements[item.ProductID] = stockIncrements[item.ProductID] + item.Quantity
	}

	if err := s.productRepo.AtomicIncrementBatch(ctx, stockIncrements); err != nil {
		return err
	}

	return s.orderRepo.UpdateStatus(ctx, orderID, enum.OrderStatusCancel)
}
