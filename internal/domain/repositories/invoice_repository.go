package repositories

import (
	"context"

	"github.com/google/uuid"
	"paybridge.backend/internal/domain/entities"
)

// InvoiceRepository defines invoice data operations
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entities.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Invoice, error)
	List(ctx context.Context, filter entities.InvoiceFilter, limit, offset int) ([]*entities.Invoice, int64, error)
	// MarkPaid moves a PENDING invoice to PAID and records the settling
	// transaction refs. It returns ErrNotFound when the invoice does not exist
	// and false when it was already paid.
	MarkPaid(ctx context.Context, req entities.InvoicePaidRequest) (bool, error)
}
