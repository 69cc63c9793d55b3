package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/infrastructure/models"
)

var nonTerminalPaymentStatuses = []string{
	string(entities.PaymentStatusSubmitted),
	string(entities.PaymentStatusConfirming),
}

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment. A second row for the same (invoice, txHash)
// pair fails with ErrAlreadyExists.
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	m := paymentToModel(payment)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s for invoice %s", domainerrors.ErrAlreadyExists, payment.TxRef, payment.InvoiceID)
		}
		return err
	}
	payment.ID = m.ID
	return nil
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	return r.first(lockedDB(ctx, r.db).Where("id = ?", id))
}

// GetByTxRef matches the source transaction only. A destination leg reference
// never resolves a payment, so it cannot be read as a source confirmation.
func (r *PaymentRepository) GetByTxRef(ctx context.Context, txRef string) (*entities.Payment, error) {
	return r.first(lockedDB(ctx, r.db).
		Where("tx_hash = ?", txRef).
		Order("created_at ASC"))
}

func (r *PaymentRepository) GetByInvoiceAndTxRef(ctx context.Context, invoiceID uuid.UUID, txRef string) (*entities.Payment, error) {
	return r.first(lockedDB(ctx, r.db).Where("invoice_id = ? AND tx_hash = ?", invoiceID, txRef))
}

func (r *PaymentRepository) first(query *gorm.DB) (*entities.Payment, error) {
	var m models.Payment
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return paymentToEntity(&m), nil
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]*entities.Payment, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Payment{})
	if invoiceID != uuid.Nil {
		query = query.Where("invoice_id = ?", invoiceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Payment
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return paymentsToEntities(ms), total, nil
}

// Update persists the lifecycle fields. Identity and amounts never change.
func (r *PaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":               string(payment.Status),
			"bridge_tx_hash":       payment.BridgeTxRef.Ptr(),
			"source_leg_confirmed": payment.SourceLegConfirmed,
			"failure_reason":       payment.FailureReason.Ptr(),
			"confirmed_at":         payment.ConfirmedAt.Ptr(),
			"updated_at":           payment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.Payment, error) {
	var ms []models.Payment
	query := GetDB(ctx, r.db).WithContext(ctx).
		Where("status IN ? AND created_at < ?", nonTerminalPaymentStatuses, before).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return paymentsToEntities(ms), nil
}

func (r *PaymentRepository) ListAwaitingConfirmation(ctx context.Context, chain entities.ChainID, limit int) ([]*entities.Payment, error) {
	var ms []models.Payment
	query := GetDB(ctx, r.db).WithContext(ctx).
		Where("status IN ? AND source_chain = ? AND source_leg_confirmed = ?", nonTerminalPaymentStatuses, string(chain), false).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return paymentsToEntities(ms), nil
}

func paymentsToEntities(ms []models.Payment) []*entities.Payment {
	out := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		out = append(out, paymentToEntity(&ms[i]))
	}
	return out
}

func paymentToModel(p *entities.Payment) *models.Payment {
	return &models.Payment{
		ID:                 p.ID,
		InvoiceID:          p.InvoiceID,
		Amount:             p.Amount,
		TokenAddress:       p.TokenAddress,
		TokenSymbol:        p.TokenSymbol,
		PayerAddress:       p.PayerAddress.Ptr(),
		SourceChain:        string(p.SourceChain),
		DestinationChain:   string(p.DestinationChain),
		Route:              string(p.Route),
		BridgeDirection:    p.BridgeDirection.Ptr(),
		TxHash:             p.TxRef,
		BridgeTxHash:       p.BridgeTxRef.Ptr(),
		SourceLegConfirmed: p.SourceLegConfirmed,
		Status:             string(p.Status),
		FailureReason:      p.FailureReason.Ptr(),
		ConfirmedAt:        p.ConfirmedAt.Ptr(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func paymentToEntity(m *models.Payment) *entities.Payment {
	return &entities.Payment{
		ID:                 m.ID,
		InvoiceID:          m.InvoiceID,
		Amount:             m.Amount,
		TokenAddress:       m.TokenAddress,
		TokenSymbol:        m.TokenSymbol,
		PayerAddress:       null.StringFromPtr(m.PayerAddress),
		SourceChain:        entities.ChainID(m.SourceChain),
		DestinationChain:   entities.ChainID(m.DestinationChain),
		Route:              entities.RouteKind(m.Route),
		BridgeDirection:    null.StringFromPtr(m.BridgeDirection),
		TxRef:              m.TxHash,
		BridgeTxRef:        null.StringFromPtr(m.BridgeTxHash),
		SourceLegConfirmed: m.SourceLegConfirmed,
		Status:             entities.PaymentStatus(m.Status),
		FailureReason:      null.StringFromPtr(m.FailureReason),
		ConfirmedAt:        null.TimeFromPtr(m.ConfirmedAt),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// pgUniqueViolation is the SQLSTATE postgres reports for a duplicate key.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	// sqlite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
