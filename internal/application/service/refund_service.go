package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// RefundService drives the refund path: validate, calculate, then persist the
// refund transaction, its audit rows and the audit log inside one unit of
// work. A failed attempt still leaves a RefundAuditLog row with status=failed,
// written independently after the transaction rolls back.
type RefundService struct {
	uow             repository.UnitOfWork
	paymentRepo     repository.PaymentRepository
	transactionRepo repository.PaymentTransactionRepository
	orderRepo       repository.OrderRepository
	orderItemRepo   repository.OrderItemRepository
	refundItemRepo  repository.RefundItemRepository
	auditLogRepo    repository.RefundAuditLogRepository
	tenants         TenantSettingsSource
	calculator      *RefundCalculator
	validator       *RefundValidator
}

// NewRefundService creates a new refund service
func NewRefundService(
	uow repository.UnitOfWork,
	paymentRepo repository.PaymentRepository,
	transactionRepo repository.PaymentTransactionRepository,
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	refundItemRepo repository.RefundItemRepository,
	auditLogRepo repository.RefundAuditLogRepository,
	tenants TenantSettingsSource,
	calculator *RefundCalculator,
	validator *RefundValidator,
) *RefundService {
	return &RefundService{
		uow:             uow,
		paymentRepo:     paymentRepo,
		transactionRepo: transactionRepo,
		orderRepo:       orderRepo,
		orderItemRepo:   orderItemRepo,
		refundItemRepo:  refundItemRepo,
		auditLogRepo:    auditLogRepo,
		tenants:         tenants,
		calculator:      calculator,
		validator:       validator,
	}
}

// refundWindowDays loads the tenant's configured refund window. Zero
// means unlimited; a missing tenant record applies no window.
func (s *RefundService) refundWindowDays(ctx context.Context) (int, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return 0, nil
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if tenant == nil {
		return 0, nil
	}
	return tenant.Settings.RefundWindow, nil
}

// ProcessRefundInput describes one refund attempt against a payment.
type ProcessRefundInput struct {
	PaymentID     uuid.UUID
	Items         []ItemQuantity
	Reason        string
	TransactionID *uuid.UUID // Sale transaction to refund against; latest successful when nil
	Source        enum.RefundSource
	ProcessedBy   uuid.UUID
	DeviceInfo    string
}

// ProcessRefundResult is the outcome of a committed refund.
type ProcessRefundResult struct {
	RefundTransactionID uuid.UUID             `json:"refund_transaction_id"`
	RefundAmount        int64                 `json:"-"` // Cents; converted at the JSON boundary
	Breakdown           *MultiRefundBreakdown `json:"breakdown"`
	RefundItems         []entity.RefundItem   `json:"refund_items"`
	AuditLogID          uuid.UUID             `json:"audit_log_id"`
}

// CalculateRefund is the pure preview: it computes the breakdown without
// writing anything, so calling it repeatedly has no side effects.
func (s *RefundService) CalculateRefund(ctx context.Context, paymentID uuid.UUID, items []ItemQuantity, transactionID *uuid.UUID) (*MultiRefundBreakdown, error) {
	payment, order, saleTx, err := s.loadRefundContext(ctx, paymentID, transactionID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateItems(ctx, order, items); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	if ok, reason := s.validator.ValidatePaymentRefund(payment); !ok {
		return nil, apperror.NewBadRequestError(reason)
	}
	windowDays, err := s.refundWindowDays(ctx)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.validator.ValidateRefundWindow(order, windowDays); !ok {
		return nil, apperror.NewBadRequestError(reason)
	}

	return s.calculator.MultiItemRefund(order, items, saleTx)
}

// ProcessRefund validates, computes and persists an item-level refund.
func (s *RefundService) ProcessRefund(ctx context.Context, input *ProcessRefundInput) (*ProcessRefundResult, error) {
	result, err := s.processRefund(ctx, input, enum.RefundActionInitiated)
	if err != nil {
		s.logFailedAttempt(ctx, input.PaymentID, enum.RefundActionInitiated, input, err)
		return nil, err
	}
	return result, nil
}

// ProcessFullOrderRefund refunds every line on the payment's order at full
// quantity.
func (s *RefundService) ProcessFullOrderRefund(ctx context.Context, paymentID uuid.UUID, reason string, transactionID *uuid.UUID, source enum.RefundSource, processedBy uuid.UUID, deviceInfo string) (*ProcessRefundResult, error) {
	payment, err := s.paymentRepo.GetWithTransactions(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}

	items, err := s.orderItemRepo.GetByOrderID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	input := &ProcessRefundInput{
		PaymentID:     paymentID,
		Items:         make([]ItemQuantity, len(items)),
		Reason:        reason,
		TransactionID: transactionID,
		Source:        source,
		ProcessedBy:   processedBy,
		DeviceInfo:    deviceInfo,
	}
	for i := range items {
		input.Items[i] = ItemQuantity{OrderItemID: items[i].ID, Quantity: items[i].Quantity}
	}

	result, err := s.processRefund(ctx, input, enum.RefundActionFullInitiated)
	if err != nil {
		s.logFailedAttempt(ctx, paymentID, enum.RefundActionFullInitiated, input, err)
		return nil, err
	}
	return result, nil
}

// RefundForExchange runs the item refund path on behalf of an exchange. The
// caller owns the transaction boundary and the failure audit row, so this
// does neither; inside an open unit of work all writes join it.
func (s *RefundService) RefundForExchange(ctx context.Context, input *ProcessRefundInput) (*ProcessRefundResult, error) {
	return s.processRefund(ctx, input, enum.RefundActionExchange)
}

// GetRefundHistory returns the audit trail for a payment.
func (s *RefundService) GetRefundHistory(ctx context.Context, paymentID uuid.UUID) ([]entity.RefundAuditLog, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return s.auditLogRepo.ListByPaymentID(ctx, paymentID)
}

func (s *RefundService) processRefund(ctx context.Context, input *ProcessRefundInput, action enum.RefundAction) (*ProcessRefundResult, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	payment, order, saleTx, err := s.loadRefundContext(ctx, input.PaymentID, input.TransactionID)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.validator.ValidatePaymentRefund(payment); !ok {
		return nil, apperror.NewBadRequestError(reason)
	}
	windowDays, err := s.refundWindowDays(ctx)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.validator.ValidateRefundWindow(order, windowDays); !ok {
		return nil, apperror.NewBadRequestError(reason)
	}

	var result *ProcessRefundResult
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Lock every affected line before validating so the cumulative
		// quantity check and the refund item writes are serialized per
		// line against concurrent refunds.
		for _, pair := range input.Items {
			locked, err := s.orderItemRepo.LockForRefund(txCtx, pair.OrderItemID)
			if err != nil {
				return err
			}
			if locked == nil {
				return apperror.NewNotFoundError(fmt.Sprintf("Order item %s", pair.OrderItemID))
			}
		}

		if fieldErrors := s.validateItems(txCtx, order, input.Items); len(fieldErrors) > 0 {
			return apperror.NewValidationError(fieldErrors)
		}

		breakdown, err := s.calculator.MultiItemRefund(order, input.Items, saleTx)
		if err != nil {
			return err
		}

		refundTx := &entity.PaymentTransaction{
			TenantID:  tenantID,
			PaymentID: payment.ID,
			Type:      enum.TransactionTypeRefund,
			Status:    enum.TransactionStatusSuccessful,
			Amount:    breakdown.GrandTotal,
			Tip:       breakdown.TotalTip,
			Surcharge: breakdown.TotalSurcharge,
			Currency:  payment.Currency,
			Reference: utils.GenerateRefundReference(),
		}
		if err := s.transactionRepo.Create(txCtx, refundTx); err != nil {
			return err
		}

		refundItems := make([]entity.RefundItem, len(breakdown.Items))
		for i, item := range breakdown.Items {
			refundItems[i] = entity.RefundItem{
				TenantID:            tenantID,
				RefundTransactionID: refundTx.ID,
				OrderItemID:         item.OrderItemID,
				QuantityRefunded:    item.Quantity,
				AmountPerUnit:       item.AmountPerUnit,
				TotalRefundAmount:   item.Subtotal,
				TaxRefunded:         item.Tax,
				ModifierRefund:      item.Modifiers,
				TipRefunded:         item.Tip,
				SurchargeRefunded:   item.Surcharge,
				Currency:            payment.Currency,
			}
		}
		if err := s.refundItemRepo.CreateBatch(txCtx, refundItems); err != nil {
			return err
		}

		auditLog := &entity.RefundAuditLog{
			TenantID:            tenantID,
			PaymentID:           payment.ID,
			RefundTransactionID: &refundTx.ID,
			Action:              action,
			Source:              input.Source,
			RefundAmount:        breakdown.GrandTotal,
			Currency:            payment.Currency,
			Reason:              input.Reason,
			Status:              enum.AuditStatusSuccess,
			ProcessedByID:       input.ProcessedBy,
			DeviceInfo:          input.DeviceInfo,
		}
		if err := s.auditLogRepo.Create(txCtx, auditLog); err != nil {
			return err
		}

		if err := s.rollupPaymentStatus(txCtx, payment, saleTx, breakdown.GrandTotal); err != nil {
			return err
		}

		result = &ProcessRefundResult{
			RefundTransactionID: refundTx.ID,
			RefundAmount:        breakdown.GrandTotal,
			Breakdown:           breakdown,
			RefundItems:         refundItems,
			AuditLogID:          auditLog.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadRefundContext fetches the payment with transactions, the order with
// items, and resolves the sale transaction being refunded against.
func (s *RefundService) loadRefundContext(ctx context.Context, paymentID uuid.UUID, transactionID *uuid.UUID) (*entity.Payment, *entity.Order, *entity.PaymentTransaction, error) {
	payment, err := s.paymentRepo.GetWithTransactions(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if payment == nil {
		return nil, nil, nil, apperror.NewNotFoundError("Payment")
	}

	order, err := s.orderRepo.GetWithItems(ctx, payment.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if order == nil {
		return nil, nil, nil, apperror.NewNotFoundError("Order")
	}

	var saleTx *entity.PaymentTransaction
	if transactionID != nil {
		for i := range payment.Transactions {
			if payment.Transactions[i].ID == *transactionID {
				saleTx = &payment.Transactions[i]
				break
			}
		}
		if saleTx == nil {
			return nil, nil, nil, apperror.NewNotFoundError("Payment transaction")
		}
		if saleTx.Status != enum.TransactionStatusSuccessful {
			return nil, nil, nil, apperror.NewBadRequestError("Transaction is not in a successful state")
		}
	} else {
		saleTx = payment.LatestSuccessfulTransaction(enum.TransactionTypeSale)
		if saleTx == nil {
			return nil, nil, nil, apperror.NewBadRequestError("No refundable transaction found for payment")
		}
	}

	return payment, order, saleTx, nil
}

// validateItems runs the item validator over every pair, collecting every
// failure so a multi-item request surfaces all of its problems at once.
func (s *RefundService) validateItems(ctx context.Context, order *entity.Order, items []ItemQuantity) []apperror.FieldError {
	itemsByID := make(map[uuid.UUID]*entity.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}

	var fieldErrors []apperror.FieldError
	for _, pair := range items {
		item, ok := itemsByID[pair.OrderItemID]
		if !ok {
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
	return fieldErrors
}

// rollupPaymentStatus marks the payment refunded or partially refunded based
// on the cumulative refunded amount against the sale capture.
func (s *RefundService) rollupPaymentStatus(ctx context.Context, payment *entity.Payment, saleTx *entity.PaymentTransaction, newRefund int64) error {
	refunded := newRefund
	for i := range payment.Transactions {
		t := &payment.Transactions[i]
		if t.Type == enum.TransactionTypeRefund && t.Status == enum.TransactionStatusSuccessful {
			refunded += t.Amount
		}
	}

	status := enum.PaymentStatusPartiallyRefunded
	if refunded >= saleTx.Amount {
		status = enum.PaymentStatusRefunded
	}
	return s.paymentRepo.UpdateStatus(ctx, payment.ID, status)
}

// logFailedAttempt records a failed refund action outside the rolled-back
// transaction so the audit trail keeps every attempt. Validation failures on
// data that never reached the write path still leave a trace.
func (s *RefundService) logFailedAttempt(ctx context.Context, paymentID uuid.UUID, action enum.RefundAction, input *ProcessRefundInput, cause error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return
	}
	auditLog := &entity.RefundAuditLog{
		TenantID:      tenantID,
		PaymentID:     paymentID,
		Action:        action,
		Source:        input.Source,
		Reason:        input.Reason,
		Status:        enum.AuditStatusFailed,
		ErrorMessage:  cause.Error(),
		ProcessedByID: input.ProcessedBy,
		DeviceInfo:    input.DeviceInfo,
	}
	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		// The attempt itself already failed; losing the failure row is
		// worth a log line but must not mask the original error.
		log.Printf("Warning: failed to write refund audit log for payment %s: %v", paymentID, err)
	}
}
