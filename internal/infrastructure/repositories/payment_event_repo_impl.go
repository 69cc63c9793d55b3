package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"paybridge.backend/internal/domain/entities"
	"paybridge.backend/internal/infrastructure/models"
)

// PaymentEventRepository implements payment event data operations
type PaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create appends an event. Events are never updated.
func (r *PaymentEventRepository) Create(ctx context.Context, event *entities.PaymentEvent) error {
	m := &models.PaymentEvent{
		ID:        event.ID,
		PaymentID: event.PaymentID,
		EventType: string(event.EventType),
		Chain:     string(event.Chain),
		TxHash:    event.TxRef,
		Status:    string(event.Status),
		Detail:    event.Detail,
		CreatedAt: event.CreatedAt,
	}
	return GetDB(ctx, r.db).WithContext(ctx).Create(m).Error
}

// GetByPaymentID gets events for a payment, oldest first
func (r *PaymentEventRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error) {
	var ms []models.PaymentEvent
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC, id ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]*entities.PaymentEvent, 0, len(ms))
	for i := range ms {
		events = append(events, paymentEventToEntity(&ms[i]))
	}
	return events, nil
}

func paymentEventToEntity(m *models.PaymentEvent) *entities.PaymentEvent {
	return &entities.PaymentEvent{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		EventType: entities.PaymentEventType(m.EventType),
		Chain:     entities.ChainID(m.Chain),
		TxRef:     m.TxHash,
		Status:    entities.PaymentStatus(m.Status),
		Detail:    m.Detail,
		CreatedAt: m.CreatedAt,
	}
}
