package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"paybridge.backend/internal/domain/entities"
	"paybridge.backend/internal/infrastructure/blockchain"
	"paybridge.backend/internal/usecases"
	"paybridge.backend/pkg/logger"
)

const confirmationPollBatch = 50

type AwaitingPaymentLister interface {
	ListAwaitingConfirmation(ctx context.Context, chain entities.ChainID, limit int) ([]*entities.Payment, error)
}

type TxObserver interface {
	ObserveTransaction(ctx context.Context, txHash string) (blockchain.TxObservation, error)
}

type StatusUpdateHandler interface {
	HandleUpdate(ctx context.Context, update entities.PaymentStatusUpdate) (*usecases.TrackResult, error)
}

// ConfirmationPollerJob is a status feed for Base payments: it reads receipts
// of unconfirmed source transactions and reports what it sees to the tracker.
type ConfirmationPollerJob struct {
	ticker
	payments   AwaitingPaymentLister
	observer   TxObserver
	tracker    StatusUpdateHandler
	attempts   uint
	retryDelay time.Duration
}

func NewConfirmationPollerJob(payments AwaitingPaymentLister, observer TxObserver, tracker StatusUpdateHandler, interval time.Duration) *ConfirmationPollerJob {
	return &ConfirmationPollerJob{
		ticker:     newTicker("confirmation_poller", interval),
		payments:   payments,
		observer:   observer,
		tracker:    tracker,
		attempts:   3,
		retryDelay: 200 * time.Millisecond,
	}
}

func (j *ConfirmationPollerJob) Start(ctx context.Context) {
	j.run(ctx, j.poll)
}

func (j *ConfirmationPollerJob) poll(ctx context.Context) {
	pending, err := j.payments.ListAwaitingConfirmation(ctx, entities.ChainA, confirmationPollBatch)
	if err != nil {
		logger.Error(ctx, "Error listing payments awaiting confirmation", zap.Error(err))
		return
	}
	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}
		j.check(ctx, p)
	}
}

func (j *ConfirmationPollerJob) check(ctx context.Context, p *entities.Payment) {
	var obs blockchain.TxObservation
	err := retry.Do(func() error {
		var err error
		obs, err = j.observer.ObserveTransaction(ctx, p.TxRef)
		return err
	},
		retry.Attempts(j.attempts),
		retry.Delay(j.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, blockchain.ErrInvalidTxHash)
		}),
	)
	if err != nil {
		logger.Warn(ctx, "Receipt lookup failed",
			zap.String("payment_id", p.ID.String()),
			zap.String("tx_hash", p.TxRef),
			zap.Error(err),
		)
		return
	}
	if !obs.Found {
		return
	}
	if obs.Status == entities.PaymentStatusConfirming && p.Status == entities.PaymentStatusConfirming {
		return
	}

	if _, err := j.tracker.HandleUpdate(ctx, entities.PaymentStatusUpdate{
		PaymentID: p.ID,
		Status:    obs.Status,
		Reason:    obs.Reason,
	}); err != nil {
		logger.Error(ctx, "Failed to apply observed status",
			zap.String("payment_id", p.ID.String()),
			zap.String("status", string(obs.Status)),
			zap.Error(err),
		)
	}
}
