package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/enum"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/money"
)

// PaymentService owns payment records and their transaction ledger. The
// refund engine drives it through the transaction repository; this service
// covers capture and lookup.
type PaymentService struct {
	uow             repository.UnitOfWork
	paymentRepo     repository.PaymentRepository
	transactionRepo repository.PaymentTransactionRepository
	orderRepo       repository.OrderRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	uow repository.UnitOfWork,
	paymentRepo repository.PaymentRepository,
	transactionRepo repository.PaymentTransactionRepository,
	orderRepo repository.OrderRepository,
) *PaymentService {
	return &PaymentService{
		uow:             uow,
		paymentRepo:     paymentRepo,
		transactionRepo: transactionRepo,
		orderRepo:       orderRepo,
	}
}

// CapturePaymentInput records money taken for an order.
type CapturePaymentInput struct {
	OrderID   uuid.UUID
	Method    string
	Tip       float64 // Decimal; converted to cents at this boundary
	Surcharge float64 // Decimal; converted to cents at this boundary
	Reference string
}

// CapturePayment creates (or reuses) the order's payment record and writes a
// successful sale transaction for the order total plus tip and surcharge.
func (s *PaymentService) CapturePayment(ctx context.Context, input *CapturePaymentInput) (*entity.Payment, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	order, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if order.OrderStatus == enum.OrderStatusCancel {
		return nil, apperror.NewBadRequestError("Cannot capture payment for a cancelled order")
	}

	tipCents := money.ToMinor(order.Currency, input.Tip)
	surchargeCents := money.ToMinor(order.Currency, input.Surcharge)

	var payment *entity.Payment
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		payment, err = s.paymentRepo.GetByOrderID(txCtx, input.OrderID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment = &entity.Payment{
				TenantID: tenantID,
				OrderID:  order.ID,
				Status:   enum.PaymentStatusUnpaid,
				Method:   input.Method,
				Currency: order.Currency,
			}
			if err := s.paymentRepo.Create(txCtx, payment); err != nil {
				return err
			}
		} else if payment.Status == enum.PaymentStatusPaid {
			return apperror.NewConflictError("Order payment has already been captured")
		}

		reference := input.Reference
		if reference == "" {
			reference = fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
		}

		tx := &entity.PaymentTransaction{
			TenantID:  tenantID,
			PaymentID: payment.ID,
			Type:      enum.TransactionTypeSale,
			Status:    enum.TransactionStatusSuccessful,
			Amount:    order.GrandTotal + tipCents + surchargeCents,
			Tip:       tipCents,
			Surcharge: surchargeCents,
			Currency:  order.Currency,
			Reference: reference,
		}
		if err := s.transactionRepo.Create(txCtx, tx); err != nil {
			return err
		}

		if err := s.paymentRepo.UpdateStatus(txCtx, payment.ID, enum.PaymentStatusPaid); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatus(txCtx, order.ID, enum.OrderStatusComplete)
	})
	if err != nil {
		return nil, err
	}

	return s.paymentRepo.GetWithTransactions(ctx, payment.ID)
}

// RecordPendingPayment creates a payment with a pending sale transaction for
// an amount not yet collected (the exchange balance-due path).
func (s *PaymentService) RecordPendingPayment(ctx context.Context, orderID uuid.UUID, method string, amount int64) (*entity.Payment, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	var payment *entity.Payment
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		payment = &entity.Payment{
			TenantID: tenantID,
			OrderID:  orderID,
			Status:   enum.PaymentStatusUnpaid,
			Method:   method,
			Currency: order.Currency,
		}
		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}

		tx := &entity.PaymentTransaction{
			TenantID:  tenantID,
			PaymentID: payment.ID,
			Type:      enum.TransactionTypeSale,
			Status:    enum.TransactionStatusPending,
			Amount:    amount,
			Currency:  order.Currency,
			Reference: fmt.Sprintf("TXN-%s", uuid.New().String()[:8]),
		}
		return s.transactionRepo.Create(txCtx, tx)
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// GetPayment retrieves a payment with its transactions
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetWithTransactions(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}

// GetPaymentForOrder retrieves the payment attached to an order
func (s *PaymentService) GetPaymentForOrder(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}
