package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// balanceTolerance is the band, in cents, inside which an exchange balance
// counts as even. Rounding dust below one cent either way is not worth a
// micro-payment or a micro-refund.
const balanceTolerance int64 = 1

// Exchange outcome actions returned by CompleteExchange.
const (
	ExchangeActionPaymentRequired = "payment_required"
	ExchangeActionRefundIssued    = "refund_issued"
	ExchangeActionEvenExchange    = "even_exchange"
)

// ExchangeService drives the return-and-rebuy workflow as an explicit state
// machine: Initiated -> RefundCompleted -> NewOrderCreated -> Completed, with
// Cancelled reachable from every non-terminal state. Each method checks the
// session's current state and fails hard on anything unexpected.
type ExchangeService struct {
	uow             repository.UnitOfWork
	exchangeRepo    repository.ExchangeRepository
	orderRepo       repository.OrderRepository
	paymentRepo     repository.PaymentRepository
	transactionRepo repository.PaymentTransactionRepository
	auditLogRepo    repository.RefundAuditLogRepository
	refundItemRepo  repository.RefundItemRepository
	refundService   *RefundService
	orderService    *OrderService
	paymentService  *PaymentService
	tenants         TenantSettingsSource
	validator       *RefundValidator
}

// NewExchangeService creates a new exchange service
func NewExchangeService(
	uow repository.UnitOfWork,
	exchangeRepo repository.ExchangeRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	transactionRepo repository.PaymentTransactionRepository,
	auditLogRepo repository.RefundAuditLogRepository,
	refundItemRepo repository.RefundItemRepository,
	refundService *RefundService,
	orderService *OrderService,
	paymentService *PaymentService,
	tenants TenantSettingsSource,
	validator *RefundValidator,
) *ExchangeService {
	return &ExchangeService{
		uow:             uow,
		exchangeRepo:    exchangeRepo,
		orderRepo:       orderRepo,
		paymentRepo:     paymentRepo,
		transactionRepo: transactionRepo,
		auditLogRepo:    auditLogRepo,
		refundItemRepo:  refundItemRepo,
		refundService:   refundService,
		orderService:    orderService,
		paymentService:  paymentService,
		tenants:         tenants,
		validator:       validator,
	}
}

// InitiateExchangeInput starts an exchange for items on an existing order.
type InitiateExchangeInput struct {
	OriginalOrderID uuid.UUID
	ItemsToReturn   []ItemQuantity
	Reason          string
	Source          enum.RefundSource
	ProcessedBy     uuid.UUID
	DeviceInfo      string
}

// InitiateExchange validates the original payment and every returned line,
// then atomically creates the session, refunds the returned items and
// advances to RefundCompleted. Validation failures abort before any session
// row is created.
func (s *ExchangeService) InitiateExchange(ctx context.Context, input *InitiateExchangeInput) (*entity.ExchangeSession, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	if len(input.ItemsToReturn) == 0 {
		return nil, apperror.NewBadRequestError("Exchange must return at least one item")
	}

	// Exchanges are a per-tenant feature.
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant != nil && !tenant.Settings.Features.EnableExchanges {
		return nil, apperror.NewAppError(http.StatusForbidden, "Exchanges are not enabled for this tenant")
	}

	order, err := s.orderRepo.GetWithItems(ctx, input.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, input.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment for order")
	}

	// Reject fast, before any session row exists.
	if ok, reason := s.validator.ValidatePaymentRefund(payment); !ok {
		return nil, apperror.NewBadRequestError(reason)
	}
	itemsByID := make(map[uuid.UUID]*entity.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}
	var fieldErrors []apperror.FieldError
	for _, pair := range input.ItemsToReturn {
		item, found := itemsByID[pair.OrderItemID]
		if !found {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   pair.OrderItemID.String(),
				Message: "Order item does not belong to this order",
			})
			continue
		}
		if ok, reason := s.validator.ValidateItemRefund(ctx, order, item, pair.Quantity); !ok {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   pair.OrderItemID.String(),
				Message: reason,
			})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	var session *entity.ExchangeSession
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		session = &entity.ExchangeSession{
			TenantID:          tenantID,
			OriginalOrderID:   order.ID,
			OriginalPaymentID: payment.ID,
			Currency:          order.Currency,
			Status:            enum.ExchangeStatusInitiated,
			Reason:            input.Reason,
			ProcessedByID:     input.ProcessedBy,
		}
		if err := s.exchangeRepo.Create(txCtx, session); err != nil {
			return err
		}

		result, err := s.refundService.RefundForExchange(txCtx, &ProcessRefundInput{
			PaymentID:   payment.ID,
			Items:       input.ItemsToReturn,
			Reason:      input.Reason,
			Source:      input.Source,
			ProcessedBy: input.ProcessedBy,
			DeviceInfo:  input.DeviceInfo,
		})
		if err != nil {
			return err
		}

		session.RefundTransactionID = &result.RefundTransactionID
		session.RefundAmount = result.RefundAmount
		session.RecalculateBalance()
		session.Status = enum.ExchangeStatusRefundCompleted
		return s.exchangeRepo.Update(txCtx, session)
	})
	if err != nil {
		s.logFailedExchangeRefund(ctx, tenantID, payment.ID, input, err)
		return nil, err
	}

	return session, nil
}

// CreateNewOrderInput describes the replacement purchase of an exchange.
type CreateNewOrderInput struct {
	SessionID     uuid.UUID
	Items         []OrderItemInput
	CustomerID    *uuid.UUID
	OrderType     enum.OrderType
	StoreLocation string
	ProcessedBy   uuid.UUID
}

// CreateNewOrder creates the replacement order for a session in
// RefundCompleted and advances it to NewOrderCreated.
func (s *ExchangeService) CreateNewOrder(ctx context.Context, input *CreateNewOrderInput) (*entity.ExchangeSession, error) {
	session, err := s.getSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enum.ExchangeStatusRefundCompleted {
		return nil, apperror.NewInvalidStateError(fmt.Sprintf(
			"Cannot create new order for exchange in state %s", session.Status))
	}

	origOrder, err := s.orderRepo.GetByID(ctx, session.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	if origOrder == nil {
		return nil, apperror.NewNotFoundError("Original order")
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = enum.OrderTypeExchange
	}
	customerID := input.CustomerID
	if customerID == nil {
		customerID = origOrder.CustomerID
	}

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		newOrder, err := s.orderService.CreateOrder(txCtx, &CreateOrderInput{
			UserID:        input.ProcessedBy,
			CustomerID:    customerID,
			OrderType:     orderType,
			StoreLocation: input.StoreLocation,
			Currency:      origOrder.Currency,
			Items:         input.Items,
		})
		if err != nil {
			return err
		}

		session.NewOrderID = &newOrder.ID
		session.NewOrderAmount = newOrder.GrandTotal
		session.RecalculateBalance()
		session.Status = enum.ExchangeStatusNewOrderCreated
		return s.exchangeRepo.Update(txCtx, session)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// CalculateBalance recomputes and persists the session balance. It performs
// no state transition and may be called from any state.
func (s *ExchangeService) CalculateBalance(ctx context.Context, sessionID uuid.UUID) (*entity.ExchangeSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.RecalculateBalance()
	if err := s.exchangeRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteExchangeResult reports how the exchange balance was settled.
type CompleteExchangeResult struct {
	Action     string                  `json:"action"`
	Session    *entity.ExchangeSession `json:"session"`
	Payment    *entity.Payment         `json:"payment,omitempty"`
	RefundTxID *uuid.UUID              `json:"refund_transaction_id,omitempty"`
}

// CompleteExchange settles the balance of a session in NewOrderCreated and
// moves it to Completed. A positive balance needs a payment method and leaves
// a pending payment on the new order; a negative balance issues an extra
// refund against the original payment; anything within the tolerance band is
// an even exchange with no money movement.
func (s *ExchangeService) CompleteExchange(ctx context.Context, sessionID uuid.UUID, paymentMethod string, processedBy uuid.UUID) (*CompleteExchangeResult, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enum.ExchangeStatusNewOrderCreated {
		return nil, apperror.NewInvalidStateError(fmt.Sprintf(
			"Cannot complete exchange in state %s", session.Status))
	}

	balance := session.RecalculateBalance()

	result := &CompleteExchangeResult{Session: session}
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		switch {
		case balance > balanceTolerance:
			// Customer owes the difference
			if paymentMethod == "" {
				return apperror.NewBadRequestError(
					"Payment method is required to collect the exchange balance")
			}
			payment, err := s.paymentService.RecordPendingPayment(txCtx, *session.NewOrderID, paymentMethod, balance)
			if err != nil {
				return err
			}
			session.NewPaymentID = &payment.ID
			result.Action = ExchangeActionPaymentRequired
			result.Payment = payment

		case balance < -balanceTolerance:
			// Customer is owed the difference; refund against the
			// original payment.
			refundTx, err := s.issueBalanceRefund(txCtx, tenantID, session, -balance, processedBy)
			if err != nil {
				return err
			}
			result.Action = ExchangeActionRefundIssued
			result.RefundTxID = &refundTx.ID

		default:
			result.Action = ExchangeActionEvenExchange
		}

		now := time.Now()
		session.CompletedAt = &now
		session.Status = enum.ExchangeStatusCompleted
		return s.exchangeRepo.Update(txCtx, session)
	})
	if err != nil {
		s.logFailedSettlement(ctx, tenantID, session, processedBy, err)
		return nil, err
	}

	return result, nil
}

// CancelExchange cancels a session from any non-terminal state. A refund
// already issued at RefundCompleted is deliberately not reversed: money that
// has moved stays moved, and the customer simply ends up refunded with no
// replacement order.
func (s *ExchangeService) CancelExchange(ctx context.Context, sessionID uuid.UUID, reason string) (*entity.ExchangeSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == enum.ExchangeStatusCompleted {
		return nil, apperror.NewInvalidStateError("Cannot cancel a completed exchange")
	}
	if session.Status == enum.ExchangeStatusCancelled {
		return nil, apperror.NewInvalidStateError("Exchange is already cancelled")
	}

	if session.Notes != "" {
		session.Notes += "\n"
	}
	session.Notes += fmt.Sprintf("Cancelled: %s", reason)
	session.Status = enum.ExchangeStatusCancelled
	if err := s.exchangeRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ExchangeSummary is the full picture of an exchange session.
type ExchangeSummary struct {
	Session       *entity.ExchangeSession `json:"session"`
	OriginalOrder *entity.Order           `json:"original_order,omitempty"`
	NewOrder      *entity.Order           `json:"new_order,omitempty"`
	RefundItems   []entity.RefundItem     `json:"refund_items,omitempty"`
}

// GetExchangeSummary returns the session with its orders and refund rows.
func (s *ExchangeService) GetExchangeSummary(ctx context.Context, sessionID uuid.UUID) (*ExchangeSummary, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &ExchangeSummary{Session: session}

	if origOrder, err := s.orderRepo.GetWithItems(ctx, session.OriginalOrderID); err == nil {
		summary.OriginalOrder = origOrder
	}
	if session.NewOrderID != nil {
		if newOrder, err := s.orderRepo.GetWithItems(ctx, *session.NewOrderID); err == nil {
			summary.NewOrder = newOrder
		}
	}
	if session.RefundTransactionID != nil {
		items, err := s.refundItemRepo.ListByTransactionID(ctx, *session.RefundTransactionID)
		if err != nil {
			return nil, err
		}
		summary.RefundItems = items
	}

	return summary, nil
}

func (s *ExchangeService) getSession(ctx context.Context, id uuid.UUID) (*entity.ExchangeSession, error) {
	session, err := s.exchangeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Exchange session")
	}
	return session, nil
}

// issueBalanceRefund writes the extra refund transaction and its audit row
// for a negative exchange balance. No refund items are attached: the amount
// is a balance adjustment, not a line return.
func (s *ExchangeService) issueBalanceRefund(ctx context.Context, tenantID uuid.UUID, session *entity.ExchangeSession, amount int64, processedBy uuid.UUID) (*entity.PaymentTransaction, error) {
	refundTx := &entity.PaymentTransaction{
		TenantID:  tenantID,
		PaymentID: session.OriginalPaymentID,
		Type:      enum.TransactionTypeRefund,
		Status:    enum.TransactionStatusSuccessful,
		Amount:    amount,
		Currency:  session.Currency,
		Reference: utils.GenerateRefundReference(),
	}
	if err := s.transactionRepo.Create(ctx, refundTx); err != nil {
		return nil, err
	}

	auditLog := &entity.RefundAuditLog{
		TenantID:            tenantID,
		PaymentID:           session.OriginalPaymentID,
		RefundTransactionID: &refundTx.ID,
		Action:              enum.RefundActionBalance,
		Source:              enum.RefundSourcePOS,
		RefundAmount:        amount,
		Currency:            session.Currency,
		Reason:              fmt.Sprintf("Exchange %s balance settlement", session.ID),
		Status:              enum.AuditStatusSuccess,
		ProcessedByID:       processedBy,
	}
	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		return nil, err
	}
	return refundTx, nil
}

// logFailedSettlement records a failed completion attempt outside the
// rolled-back transaction. Settlement can move money in either direction, so
// a vanished attempt would leave a hole in the trail.
func (s *ExchangeService) logFailedSettlement(ctx context.Context, tenantID uuid.UUID, session *entity.ExchangeSession, processedBy uuid.UUID, cause error) {
	auditLog := &entity.RefundAuditLog{
		TenantID:      tenantID,
		PaymentID:     session.OriginalPaymentID,
		Action:        enum.RefundActionBalance,
		Source:        enum.RefundSourcePOS,
		Currency:      session.Currency,
		Reason:        fmt.Sprintf("Exchange %s balance settlement", session.ID),
		Status:        enum.AuditStatusFailed,
		ErrorMessage:  cause.Error(),
		ProcessedByID: processedBy,
	}
	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		log.Printf("Warning: failed to write settlement audit log for exchange %s: %v", session.ID, err)
	}
}

// logFailedExchangeRefund records a failed exchange initiation outside the
// rolled-back transaction so the attempt stays in the audit trail.
func (s *ExchangeService) logFailedExchangeRefund(ctx context.Context, tenantID, paymentID uuid.UUID, input *InitiateExchangeInput, cause error) {
	auditLog := &entity.RefundAuditLog{
		TenantID:      tenantID,
		PaymentID:     paymentID,
		Action:        enum.RefundActionExchange,
		Source:        input.Source,
		Reason:        input.Reason,
		Status:        enum.AuditStatusFailed,
		ErrorMessage:  cause.Error(),
		ProcessedByID: input.ProcessedBy,
		DeviceInfo:    input.DeviceInfo,
	}
	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		log.Printf("Warning: failed to write exchange audit log for payment %s: %v", paymentID, err)
	}
}
