package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// In-memory fakes for the repository interfaces. Large interfaces embed the
// interface type so only the methods a test exercises need an implementation;
// an unexpected call panics with a nil pointer, which is exactly the failure
// a test should get.

var testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func testCtx() context.Context {
	return infraRepo.WithTenant(context.Background(), testTenantID)
}

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeTenantSource struct {
	tenants map[uuid.UUID]*entity.Tenant
}

func newFakeTenantSource() *fakeTenantSource {
	return &fakeTenantSource{tenants: map[uuid.UUID]*entity.Tenant{
		testTenantID: {ID: testTenantID, Settings: entity.DefaultTenantSettings()},
	}}
}

func (r *fakeTenantSource) GetByID(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	return r.tenants[id], nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*entity.Payment
	statuses map[uuid.UUID]enum.PaymentStatus
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[uuid.UUID]*entity.Payment),
		statuses: make(map[uuid.UUID]enum.PaymentStatus),
	}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.payments[id], nil
}

func (r *fakePaymentRepo) GetWithTransactions(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.payments[id], nil
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enum.PaymentStatus) error {
	r.statuses[id] = status
	if p, ok := r.payments[id]; ok {
		p.Status = status
	}
	return nil
}

type fakeTransactionRepo struct {
	created []*entity.PaymentTransaction
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *entity.PaymentTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.created = append(r.created, tx)
	return nil
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.PaymentTransaction, error) {
	for _, tx := range r.created {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) ListByPaymentID(_ context.Context, paymentID uuid.UUID) ([]entity.PaymentTransaction, error) {
	var out []entity.PaymentTransaction
	for _, tx := range r.created {
		if tx.PaymentID == paymentID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	repository.OrderRepository
	orders   map[uuid.UUID]*entity.Order
	statuses map[uuid.UUID]enum.OrderStatus
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[uuid.UUID]*entity.Order),
		statuses: make(map[uuid.UUID]enum.OrderStatus),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *entity.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.orders[id], nil
}

func (r *fakeOrderRepo) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.orders[id], nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enum.OrderStatus) error {
	r.statuses[id] = status
	if o, ok := r.orders[id]; ok {
		o.OrderStatus = status
	}
	return nil
}

type fakeOrderItemRepo struct {
	items map[uuid.UUID]*entity.OrderItem
}

func newFakeOrderItemRepo() *fakeOrderItemRepo {
	return &fakeOrderItemRepo{items: make(map[uuid.UUID]*entity.OrderItem)}
}

func (r *fakeOrderItemRepo) CreateBatch(_ context.Context, items []entity.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		r.items[items[i].ID] = &items[i]
	}
	return nil
}

func (r *fakeOrderItemRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	return r.items[id], nil
}

func (r *fakeOrderItemRepo) GetByIDWithOrder(_ context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	return r.items[id], nil
}

func (r *fakeOrderItemRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]entity.OrderItem, error) {
	var out []entity.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeOrderItemRepo) LockForRefund(_ context.Context, id uuid.UUID) (*entity.OrderItem, error) {
	return r.items[id], nil
}

type fakeRefundItemRepo struct {
	rows []entity.RefundItem
}

func (r *fakeRefundItemRepo) CreateBatch(_ context.Context, items []entity.RefundItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		r.rows = append(r.rows, items[i])
	}
	return nil
}

func (r *fakeRefundItemRepo) ListByTransactionID(_ context.Context, refundTransactionID uuid.UUID) ([]entity.RefundItem, error) {
	var out []entity.RefundItem
	for _, row := range r.rows {
		if row.RefundTransactionID == refundTransactionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRefundItemRepo) ListByOrderItemID(_ context.Context, orderItemID uuid.UUID) ([]entity.RefundItem, error) {
	var out []entity.RefundItem
	for _, row := range r.rows {
		if row.OrderItemID == orderItemID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRefundItemRepo) SumRefundedQuantity(_ context.Context, orderItemID uuid.UUID) (int, error) {
	total := 0
	for _, row := range r.rows {
		if row.OrderItemID == orderItemID {
			total += row.QuantityRefunded
		}
	}
	return total, nil
}

type fakeAuditLogRepo struct {
	rows []entity.RefundAuditLog
}

func (r *fakeAuditLogRepo) Create(_ context.Context, log *entity.RefundAuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	r.rows = append(r.rows, *log)
	return nil
}

func (r *fakeAuditLogRepo) ListByPaymentID(_ context.Context, paymentID uuid.UUID) ([]entity.RefundAuditLog, error) {
	var out []entity.RefundAuditLog
	for _, row := range r.rows {
		if row.PaymentID == paymentID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeExchangeRepo struct {
	sessions map[uuid.UUID]*entity.ExchangeSession
}

func newFakeExchangeRepo() *fakeExchangeRepo {
	return &fakeExchangeRepo{sessions: make(map[uuid.UUID]*entity.ExchangeSession)}
}

func (r *fakeExchangeRepo) Create(_ context.Context, s *entity.ExchangeSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeExchangeRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.ExchangeSession, error) {
	return r.sessions[id], nil
}

func (r *fakeExchangeRepo) Update(_ context.Context, s *entity.ExchangeSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeExchangeRepo) List(_ context.Context, _ *pagination.PaginationParams) ([]entity.ExchangeSession, int64, error) {
	var out []entity.ExchangeSession
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	products map[uuid.UUID]*entity.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*entity.Product)}
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	var out []entity.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) AtomicDecrementBatch(_ context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error) {
	var failed []uuid.UUID
	for id, qty := range decrements {
		p, ok := r.products[id]
		if !ok || p.Quantity < qty {
			failed = append(failed, id)
			continue
		}
		p.Quantity -= qty
	}
	return failed, nil
}

func (r *fakeProductRepo) AtomicIncrementBatch(_ context.Context, increments map[uuid.UUID]int) error {
	for id, qty := range increments {
		if p, ok := r.products[id]; ok {
			p.Quantity += qty
		}
	}
	return nil
}

type fakeCustomerRepo struct {
	repository.CustomerRepository
	customers map[uuid.UUID]*entity.Customer
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.customers[id], nil
}

func (r *fakeCustomerRepo) AddStoreCredit(_ context.Context, id uuid.UUID, amount int64) (bool, error) {
	c, ok := r.customers[id]
	if !ok || c.StoreCredit+amount < 0 {
		return false, nil
	}
	c.StoreCredit += amount
	return true, nil
}
