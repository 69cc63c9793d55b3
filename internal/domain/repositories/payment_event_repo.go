package repositories

import (
	"context"

	"github.com/google/uuid"
	"paybridge.backend/internal/domain/entities"
)

type PaymentEventRepository interface {
	Create(ctx context.Context, event *entities.PaymentEvent) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error)
}
