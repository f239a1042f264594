package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/money"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	UserID   uuid.UUID
	Name     string
	Email    *string
	Phone    *string
	TaxID    *string
	Address  *string
	Currency string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	// Extract tenant ID from context
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	customer := &entity.Customer{
		TenantID: tenantID,
		UserID:   input.UserID,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		TaxID:    input.TaxID,
		Address:  input.Address,
		// Currency is fixed at creation. The store credit balance is in
		// minor units of this currency, so changing it would rescale it.
		Currency: normalizeCurrency(input.Currency),
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers. If isSuperAdmin is true, returns all customers.
func (s *CustomerService) ListCustomers(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams, search string, isSuperAdmin bool) (*pagination.PaginatedResult[entity.Customer], error) {
	customers, total, err := s.customerRepo.List(ctx, userID, params, search, isSuperAdmin)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// ListCustomersWithCursor lists customers using cursor-based pagination. If isSuperAdmin is true, returns all customers.
func (s *CustomerService) ListCustomersWithCursor(ctx context.Context, userID uuid.UUID, params *pagination.CursorParams, search string, isSuperAdmin bool) (*pagination.CursorPaginatedResult[entity.Customer], error) {
	customers, err := s.customerRepo.ListWithCursor(ctx, userID, params, search, isSuperAdmin)
	if err != nil {
		return nil, err
	}

	// A cursor on the request means we are past the first page.
	hasPrev := params.Cursor != ""

	cursorPag, items := pagination.NewCursorPagination(customers, params.Limit,
		func(c entity.Customer) string { return c.ID.String() },
		func(c entity.Customer) time.Time { return c.CreatedAt },
	)
	cursorPag.HasPrev = hasPrev

	return pagination.NewCursorPaginatedResult(items, cursorPag), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	UserID       uuid.UUID
	ID           uuid.UUID
	IsSuperAdmin bool
	Name         *string
	Email        *string
	Phone        *string
	TaxID        *string
	Address      *string
}

// UpdateCustomer updates a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, input *UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	// Super-admin can update any customer, regular users can only update their own
	if !input.IsSuperAdmin && customer.UserID != input.UserID {
		return nil, apperror.ErrForbidden
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.TaxID != nil {
		customer.TaxID = input.TaxID
	}
	if input.Address != nil {
		customer.Address = input.Address
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// GrantStoreCredit adjusts a customer's store credit balance by the given
// decimal amount in the customer's currency. Positive amounts grant credit
// (store-credit refunds land here); negative amounts redeem it against a
// later order and are refused if they would overdraw the balance.
func (s *CustomerService) GrantStoreCredit(ctx context.Context, id uuid.UUID, amount float64) (*entity.Customer, error) {
	if amount == 0 {
		return nil, apperror.NewBadRequestError("Credit amount cannot be zero")
	}

	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	minor := money.ToMinor(customer.Currency, amount)
	ok, err := s.customerRepo.AddStoreCredit(ctx, id, minor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewConflictError("Insufficient store credit")
	}

	return s.customerRepo.GetByID(ctx, id)
}

// DeleteCustomer deletes a customer
func (s *CustomerService) DeleteCustomer(ctx context.Context, userID, id uuid.UUID, isSuperAdmin bool) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}

	// Super-admin can delete any customer, regular users can only delete their own
	if !isSuperAdmin && customer.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.customerRepo.Delete(ctx, id)
}
