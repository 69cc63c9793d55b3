package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/pkg/logger"
)

// StatusTracker applies status observations to payments.
type StatusTracker interface {
	HandleUpdate(ctx context.Context, update entities.PaymentStatusUpdate) (*TrackResult, error)
}

// WebhookUsecase turns status feed notifications into tracker updates
type WebhookUsecase struct {
	tracker StatusTracker
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(tracker StatusTracker) *WebhookUsecase {
	return &WebhookUsecase{tracker: tracker}
}

// ProcessPaymentStatus identifies the payment by paymentId, by invoiceId and
// txHash, or by txHash alone. A missing status means CONFIRMED unless the
// notification only reports the destination leg.
func (u *WebhookUsecase) ProcessPaymentStatus(ctx context.Context, input *entities.PaymentStatusWebhookInput) (*TrackResult, error) {
	update, err := ParseStatusUpdate(input)
	if err != nil {
		return nil, err
	}

	result, err := u.tracker.HandleUpdate(ctx, update)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Payment status webhook processed",
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("status", string(result.Payment.Status)),
		zap.String("outcome", string(result.Outcome())),
	)
	return result, nil
}

// ParseStatusUpdate validates a notification body.
func ParseStatusUpdate(input *entities.PaymentStatusWebhookInput) (entities.PaymentStatusUpdate, error) {
	update := entities.PaymentStatusUpdate{
		TxRef:       strings.TrimSpace(input.TxRef),
		BridgeTxRef: strings.TrimSpace(input.BridgeTxRef),
		Reason:      input.Reason,
	}

	if input.PaymentID != "" {
		id, err := uuid.Parse(input.PaymentID)
		if err != nil {
			return update, domainerrors.BadRequest("invalid paymentId")
		}
		update.PaymentID = id
	}
	if input.InvoiceID != "" {
		id, err := uuid.Parse(input.InvoiceID)
		if err != nil {
			return update, domainerrors.BadRequest("invalid invoiceId")
		}
		update.InvoiceID = id
	}
	if update.PaymentID == uuid.Nil && update.TxRef == "" {
		return update, domainerrors.BadRequest("Missing required fields: paymentId or (invoiceId + txHash)")
	}

	switch raw := strings.ToUpper(strings.TrimSpace(input.Status)); {
	case raw != "":
		status, ok := entities.ParsePaymentStatus(raw)
		if !ok {
			return update, domainerrors.BadRequest(fmt.Sprintf("unknown status %q", input.Status))
		}
		update.Status = status
	case update.BridgeTxRef == "":
		update.Status = entities.PaymentStatusConfirmed
	}
	return update, nil
}
