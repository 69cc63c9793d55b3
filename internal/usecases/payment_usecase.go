package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/domain/repositories"
	"paybridge.backend/pkg/logger"
	"paybridge.backend/pkg/utils"
)

// PaymentUsecase registers submitted transactions and exposes their state
type PaymentUsecase struct {
	paymentRepo repositories.PaymentRepository
	eventRepo   repositories.PaymentEventRepository
	invoiceRepo repositories.InvoiceRepository
	uow         repositories.UnitOfWork
	routes      *RouteSelector
	tracker     *PaymentTracker
	now         func() time.Time
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	eventRepo repositories.PaymentEventRepository,
	invoiceRepo repositories.InvoiceRepository,
	uow repositories.UnitOfWork,
	routes *RouteSelector,
	tracker *PaymentTracker,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		invoiceRepo: invoiceRepo,
		uow:         uow,
		routes:      routes,
		tracker:     tracker,
		now:         time.Now,
	}
}

// RegisterPayment starts tracking a transaction submitted for an invoice.
// Registering the same (invoice, txHash) pair again returns the existing
// payment with created=false. The invoice is not marked paid here; that
// happens only when the tracker confirms the payment.
func (u *PaymentUsecase) RegisterPayment(ctx context.Context, input *entities.RegisterPaymentInput) (*entities.Payment, bool, error) {
	txRef := strings.TrimSpace(input.TxRef)
	if txRef == "" {
		return nil, false, domainerrors.BadRequest("txHash is required")
	}

	existing, err := u.paymentRepo.GetByInvoiceAndTxRef(ctx, input.InvoiceID, txRef)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, false, err
	}

	invoice, err := u.invoiceRepo.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, false, err
	}
	if invoice.Status != entities.InvoiceStatusPending {
		return nil, false, fmt.Errorf("%w: invoice %s is %s", domainerrors.ErrInvalidState, invoice.InvoiceNumber, invoice.Status)
	}
	route := u.routes.Select(invoice.Chain, invoice.DestinationChain)
	if route.Kind == entities.RouteUnsupported {
		return nil, false, fmt.Errorf("%w: %s: %s", domainerrors.ErrUnsupportedRoute, route.Direction(), route.Reason)
	}
	if input.PayerAddress != "" && !entities.IsValidAddress(invoice.Chain, input.PayerAddress) {
		return nil, false, fmt.Errorf("payer: %w: %q", domainerrors.ErrInvalidAddress, input.PayerAddress)
	}

	now := u.now()
	payment := &entities.Payment{
		ID:               utils.GenerateUUIDv7(),
		InvoiceID:        invoice.ID,
		Amount:           invoice.Amount,
		TokenAddress:     invoice.TokenAddress,
		TokenSymbol:      invoice.TokenSymbol,
		PayerAddress:     null.NewString(input.PayerAddress, input.PayerAddress != ""),
		SourceChain:      invoice.Chain,
		DestinationChain: invoice.DestinationChain,
		Route:            route.Kind,
		TxRef:            txRef,
		Status:           entities.PaymentStatusSubmitted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if route.IsBridged() {
		payment.BridgeDirection.SetValid(route.Direction().String())
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}
		return u.eventRepo.Create(txCtx, &entities.PaymentEvent{
			ID:        utils.GenerateUUIDv7(),
			PaymentID: payment.ID,
			EventType: entities.PaymentEventTypeSubmitted,
			Chain:     payment.SourceChain,
			TxRef:     payment.TxRef,
			Status:    payment.Status,
			CreatedAt: now,
		})
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		// a concurrent registration of the same pair won the insert
		existing, getErr := u.paymentRepo.GetByInvoiceAndTxRef(ctx, input.InvoiceID, txRef)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	logger.Info(ctx, "Payment registered",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("route", string(route.Kind)),
		zap.String("tx_ref", txRef),
	)

	if bridgeRef := strings.TrimSpace(input.BridgeTxRef); bridgeRef != "" && payment.IsBridged() {
		result, err := u.tracker.Apply(ctx, payment.ID, entities.DestinationLegSignal(bridgeRef))
		if err != nil {
			return nil, false, err
		}
		payment = result.Payment
	}
	return payment, true, nil
}

// GetPayment returns a payment by id
func (u *PaymentUsecase) GetPayment(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	return u.paymentRepo.GetByID(ctx, id)
}

// ListPayments returns the payments registered for an invoice
func (u *PaymentUsecase) ListPayments(ctx context.Context, invoiceID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Payment, utils.PaginationMeta, error) {
	payments, total, err := u.paymentRepo.ListByInvoice(ctx, invoiceID, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return payments, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// GetPaymentEvents returns the audit trail of a payment
func (u *PaymentUsecase) GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]*entities.PaymentEvent, error) {
	if _, err := u.paymentRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return u.eventRepo.GetByPaymentID(ctx, id)
}

// UpdatePayment applies a manual status report through the tracker.
func (u *PaymentUsecase) UpdatePayment(ctx context.Context, id uuid.UUID, input *entities.UpdatePaymentInput) (*TrackResult, error) {
	update := entities.PaymentStatusUpdate{
		PaymentID:   id,
		BridgeTxRef: strings.TrimSpace(input.BridgeTxRef),
		Reason:      input.FailedReason,
	}
	if raw := strings.ToUpper(strings.TrimSpace(input.Status)); raw != "" {
		status, ok := entities.ParsePaymentStatus(raw)
		if !ok {
			return nil, domainerrors.BadRequest(fmt.Sprintf("unknown status %q", input.Status))
		}
		update.Status = status
	}
	return u.tracker.HandleUpdate(ctx, update)
}

// ExpireStale fails every payment still waiting after timeout. It returns
// how many payments were moved to FAILED.
func (u *PaymentUsecase) ExpireStale(ctx context.Context, timeout time.Duration, limit int) (int, error) {
	stale, err := u.paymentRepo.ListStale(ctx, u.now().Add(-timeout), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range stale {
		result, err := u.tracker.Expire(ctx, p.ID, fmt.Sprintf("no confirmation within %s", timeout))
		if err != nil {
			logger.Error(ctx, "Failed to expire payment", zap.String("payment_id", p.ID.String()), zap.Error(err))
			continue
		}
		if result.Outcome() == entities.OutcomeApplied {
			expired++
		}
	}
	return expired, nil
}
