package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"paybridge.backend/internal/domain/entities"
)

// PaymentRepository defines payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error)
	// GetByTxRef matches the source transaction reference only.
	GetByTxRef(ctx context.Context, txRef string) (*entities.Payment, error)
	GetByInvoiceAndTxRef(ctx context.Context, invoiceID uuid.UUID, txRef string) (*entities.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]*entities.Payment, int64, error)
	// Update persists the lifecycle fields of a payment.
	Update(ctx context.Context, payment *entities.Payment) error
	// ListStale returns non-terminal payments created before the cutoff.
	ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.Payment, error)
	// ListAwaitingConfirmation returns non-terminal payments whose source leg
	// is not yet confirmed on the given chain.
	ListAwaitingConfirmation(ctx context.Context, chain entities.ChainID, limit int) ([]*entities.Payment, error)
}
