package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/domain/repositories"
	"paybridge.backend/pkg/logger"
	"paybridge.backend/pkg/metrics"
	"paybridge.backend/pkg/utils"
)

// SettlementSink receives the single invoice-paid request emitted when a
// payment enters Confirmed. It is called inside the tracker's transaction.
type SettlementSink interface {
	MarkInvoicePaid(ctx context.Context, req entities.InvoicePaidRequest) error
}

// TrackResult is the state of a payment after a status update.
type TrackResult struct {
	Payment     *entities.Payment
	Transitions []entities.Transition
}

// Outcome summarizes the transitions: APPLIED when any signal changed the
// payment, otherwise the outcome of the last signal.
func (r TrackResult) Outcome() entities.TransitionOutcome {
	var last entities.TransitionOutcome
	for _, t := range r.Transitions {
		if t.Changed() {
			return entities.OutcomeApplied
		}
		last = t.Outcome
	}
	return last
}

// PaymentTracker owns the lifecycle of payments. Signals for one payment
// are serialized in process by a keyed lock and across processes by a row
// lock; signals for different payments run in parallel. Duplicate, late or
// backward signals are logged and absorbed, never returned as errors.
type PaymentTracker struct {
	paymentRepo repositories.PaymentRepository
	eventRepo   repositories.PaymentEventRepository
	uow         repositories.UnitOfWork
	sink        SettlementSink
	metrics     metrics.Recorder
	locks       *keyedMutex
	now         func() time.Time
}

func NewPaymentTracker(
	paymentRepo repositories.PaymentRepository,
	eventRepo repositories.PaymentEventRepository,
	uow repositories.UnitOfWork,
	sink SettlementSink,
	recorder metrics.Recorder,
) *PaymentTracker {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &PaymentTracker{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		uow:         uow,
		sink:        sink,
		metrics:     recorder,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// HandleUpdate applies one status feed observation. The destination leg, if
// present, is applied before the status so either arrival order converges.
func (t *PaymentTracker) HandleUpdate(ctx context.Context, update entities.PaymentStatusUpdate) (*TrackResult, error) {
	id, err := t.resolve(ctx, update)
	if err != nil {
		return nil, err
	}

	var signals []entities.PaymentSignal
	if update.BridgeTxRef != "" {
		signals = append(signals, entities.DestinationLegSignal(update.BridgeTxRef))
	}
	if update.Status != "" {
		signals = append(signals, entities.StatusSignal(update.Status, update.Reason))
	}
	if len(signals) == 0 {
		return nil, domainerrors.BadRequest("status or bridge transaction reference is required")
	}
	return t.Apply(ctx, id, signals...)
}

// Expire fails a payment that is still waiting. It is a no-op for payments
// that already reached a terminal state.
func (t *PaymentTracker) Expire(ctx context.Context, paymentID uuid.UUID, reason string) (*TrackResult, error) {
	return t.Apply(ctx, paymentID, entities.TimeoutSignal(reason))
}

// Apply runs signals against one payment atomically.
func (t *PaymentTracker) Apply(ctx context.Context, paymentID uuid.UUID, signals ...entities.PaymentSignal) (*TrackResult, error) {
	ctx = logger.WithPaymentID(ctx, paymentID.String())
	unlock := t.locks.Lock(paymentID.String())
	defer unlock()

	result := &TrackResult{}
	err := t.uow.Do(ctx, func(txCtx context.Context) error {
		payment, err := t.paymentRepo.GetByID(t.uow.WithLock(txCtx), paymentID)
		if err != nil {
			return err
		}

		changed := false
		for _, sig := range signals {
			now := t.now()
			transition, applyErr := payment.Apply(sig, now)
			result.Transitions = append(result.Transitions, transition)
			if applyErr != nil {
				t.absorb(ctx, payment, sig, transition, applyErr)
				continue
			}
			if !transition.Changed() {
				t.absorb(ctx, payment, sig, transition, nil)
				continue
			}
			changed = true
			if err := t.recordEvents(txCtx, payment, sig, transition, now); err != nil {
				return err
			}
			t.metrics.IncCounter(metrics.PaymentTransition, map[string]string{
				"chain":   string(payment.SourceChain),
				"outcome": string(transition.To),
			})
			if transition.InvoicePaid {
				if err := t.settle(txCtx, payment); err != nil {
					return err
				}
			}
		}

		if changed {
			if err := t.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
		}
		result.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *PaymentTracker) resolve(ctx context.Context, update entities.PaymentStatusUpdate) (uuid.UUID, error) {
	if update.PaymentID != uuid.Nil {
		return update.PaymentID, nil
	}
	if update.TxRef == "" {
		return uuid.Nil, domainerrors.BadRequest("payment id or transaction reference is required")
	}

	var (
		payment *entities.Payment
		err     error
	)
	if update.InvoiceID != uuid.Nil {
		payment, err = t.paymentRepo.GetByInvoiceAndTxRef(ctx, update.InvoiceID, update.TxRef)
	} else {
		payment, err = t.paymentRepo.GetByTxRef(ctx, update.TxRef)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return payment.ID, nil
}

func (t *PaymentTracker) recordEvents(ctx context.Context, payment *entities.Payment, sig entities.PaymentSignal, transition entities.Transition, now time.Time) error {
	for _, eventType := range transition.Events {
		event := &entities.PaymentEvent{
			ID:        utils.GenerateUUIDv7(),
			PaymentID: payment.ID,
			EventType: eventType,
			Chain:     payment.SourceChain,
			TxRef:     payment.TxRef,
			Status:    payment.Status,
			CreatedAt: now,
		}
		switch eventType {
		case entities.PaymentEventTypeDestinationTxRef:
			event.Chain = payment.DestinationChain
			event.TxRef = sig.TxRef
		case entities.PaymentEventTypeFailed, entities.PaymentEventTypeTimeout:
			event.Detail = payment.FailureReason.String
		}
		if err := t.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to record %s event: %w", eventType, err)
		}
	}
	return nil
}

func (t *PaymentTracker) settle(ctx context.Context, payment *entities.Payment) error {
	req := entities.InvoicePaidRequest{
		InvoiceID:       payment.InvoiceID,
		PaymentID:       payment.ID,
		PaidAt:          payment.ConfirmedAt.Time,
		PayerAddress:    payment.PayerAddress.String,
		TxRef:           payment.TxRef,
		BridgeTxRef:     payment.BridgeTxRef.String,
		BridgeDirection: payment.BridgeDirection.String,
	}
	if t.sink != nil {
		if err := t.sink.MarkInvoicePaid(ctx, req); err != nil {
			return fmt.Errorf("failed to settle invoice %s: %w", payment.InvoiceID, err)
		}
	}
	t.metrics.IncCounter(metrics.InvoicePaid, map[string]string{"chain": string(payment.SourceChain)})
	logger.Info(ctx, "Payment confirmed",
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.String("tx_ref", payment.TxRef),
		zap.String("bridge_tx_ref", payment.BridgeTxRef.String),
	)
	return nil
}

func (t *PaymentTracker) absorb(ctx context.Context, payment *entities.Payment, sig entities.PaymentSignal, transition entities.Transition, err error) {
	fields := []zap.Field{
		zap.String("signal", string(sig.Kind)),
		zap.String("signal_status", string(sig.Status)),
		zap.String("status", string(payment.Status)),
		zap.String("outcome", string(transition.Outcome)),
	}
	if err != nil && errors.Is(err, domainerrors.ErrInvalidState) {
		logger.Warn(ctx, "Payment signal rejected", append(fields, zap.Error(err))...)
	} else {
		logger.Debug(ctx, "Payment signal absorbed", fields...)
	}
	t.metrics.IncCounter(metrics.PaymentAbsorbed, map[string]string{
		"chain":   string(payment.SourceChain),
		"outcome": string(transition.Outcome),
	})
}
