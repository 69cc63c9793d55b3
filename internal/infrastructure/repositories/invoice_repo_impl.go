package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/infrastructure/models"
)

// InvoiceRepository implements invoice data operations
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *entities.Invoice) error {
	m := invoiceToModel(invoice)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	invoice.ID = m.ID
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	var m models.Invoice
	if err := lockedDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return invoiceToEntity(&m), nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter entities.InvoiceFilter, limit, offset int) ([]*entities.Invoice, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Invoice{})
	if filter.RecipientAddress != "" {
		query = query.Where("recipient_address = ?", filter.RecipientAddress)
	}
	if filter.CreatorAddress != "" {
		query = query.Where("creator_address = ?", filter.CreatorAddress)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.SubscriptionID != nil {
		query = query.Where("subscription_id = ?", *filter.SubscriptionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Invoice
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.Invoice, 0, len(ms))
	for i := range ms {
		out = append(out, invoiceToEntity(&ms[i]))
	}
	return out, total, nil
}

// MarkPaid only touches PENDING rows, so a redelivered confirmation is a no-op.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, req entities.InvoicePaidRequest) (bool, error) {
	id := req.InvoiceID
	updates := map[string]interface{}{
		"status":     string(entities.InvoiceStatusPaid),
		"paid_at":    req.PaidAt,
		"updated_at": time.Now().UTC(),
	}
	optional := map[string]string{
		"payer_address":    req.PayerAddress,
		"tx_hash":          req.TxRef,
		"bridge_tx_hash":   req.BridgeTxRef,
		"bridge_direction": req.BridgeDirection,
	}
	for column, value := range optional {
		if value != "" {
			updates[column] = value
		}
	}

	db := GetDB(ctx, r.db).WithContext(ctx)
	result := db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, string(entities.InvoiceStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := db.Model(&models.Invoice{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domainerrors.ErrNotFound
	}
	return false, nil
}

func invoiceToModel(i *entities.Invoice) *models.Invoice {
	return &models.Invoice{
		ID:               i.ID,
		InvoiceNumber:    i.InvoiceNumber,
		Amount:           i.Amount,
		TokenAddress:     i.TokenAddress,
		TokenSymbol:      i.TokenSymbol,
		TokenDecimals:    int(i.TokenDecimals),
		Chain:            string(i.Chain),
		DestinationChain: string(i.DestinationChain),
		RecipientAddress: i.RecipientAddress,
		PayerAddress:     i.PayerAddress.Ptr(),
		CreatorAddress:   i.CreatorAddress,
		Description:      i.Description.Ptr(),
		Notes:            i.Notes.Ptr(),
		DueDate:          i.DueDate.Ptr(),
		Status:           string(i.Status),
		SubscriptionID:   i.SubscriptionID,
		PaidAt:           i.PaidAt.Ptr(),
		TxHash:           i.TxRef.Ptr(),
		BridgeTxHash:     i.BridgeTxRef.Ptr(),
		BridgeDirection:  i.BridgeDirection.Ptr(),
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

func invoiceToEntity(m *models.Invoice) *entities.Invoice {
	return &entities.Invoice{
		ID:               m.ID,
		InvoiceNumber:    m.InvoiceNumber,
		Amount:           m.Amount,
		TokenAddress:     m.TokenAddress,
		TokenSymbol:      m.TokenSymbol,
		TokenDecimals:    uint8(m.TokenDecimals),
		Chain:            entities.ChainID(m.Chain),
		DestinationChain: entities.ChainID(m.DestinationChain),
		RecipientAddress: m.RecipientAddress,
		PayerAddress:     null.StringFromPtr(m.PayerAddress),
		CreatorAddress:   m.CreatorAddress,
		Description:      null.StringFromPtr(m.Description),
		Notes:            null.StringFromPtr(m.Notes),
		DueDate:          null.TimeFromPtr(m.DueDate),
		Status:           entities.InvoiceStatus(m.Status),
		SubscriptionID:   m.SubscriptionID,
		PaidAt:           null.TimeFromPtr(m.PaidAt),
		TxRef:            null.StringFromPtr(m.TxHash),
		BridgeTxRef:      null.StringFromPtr(m.BridgeTxHash),
		BridgeDirection:  null.StringFromPtr(m.BridgeDirection),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
