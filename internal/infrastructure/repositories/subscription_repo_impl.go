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

// SubscriptionRepository implements subscription data operations
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	m := subscriptionToModel(sub)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	sub.ID = m.ID
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Subscription, error) {
	var m models.Subscription
	if err := lockedDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return subscriptionToEntity(&m), nil
}

func (r *SubscriptionRepository) List(ctx context.Context, filter entities.SubscriptionFilter, limit, offset int) ([]*entities.Subscription, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Subscription{})
	if filter.RecipientAddress != "" {
		query = query.Where("recipient_address = ?", filter.RecipientAddress)
	}
	if filter.PayerAddress != "" {
		query = query.Where("payer_address = ?", filter.PayerAddress)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Subscription
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return subscriptionsToEntities(ms), total, nil
}

func (r *SubscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.Subscription, error) {
	var ms []models.Subscription
	query := GetDB(ctx, r.db).WithContext(ctx).
		Where("status = ? AND next_billing_date <= ?", string(entities.SubscriptionStatusActive), now).
		Order("next_billing_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return subscriptionsToEntities(ms), nil
}

// Advance is a compare-and-set on next_billing_date. Only ACTIVE rows move.
func (r *SubscriptionRepository) Advance(ctx context.Context, update entities.SubscriptionUpdate) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND status = ? AND next_billing_date = ?",
			update.SubscriptionID, string(entities.SubscriptionStatusActive), update.PreviousNextBillingDate).
		Updates(map[string]interface{}{
			"next_billing_date": update.NextBillingDate,
			"last_billing_date": update.LastBillingDate,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func subscriptionsToEntities(ms []models.Subscription) []*entities.Subscription {
	out := make([]*entities.Subscription, 0, len(ms))
	for i := range ms {
		out = append(out, subscriptionToEntity(&ms[i]))
	}
	return out
}

func subscriptionToModel(s *entities.Subscription) *models.Subscription {
	return &models.Subscription{
		ID:               s.ID,
		Name:             s.Name,
		Amount:           s.Amount,
		TokenAddress:     s.TokenAddress,
		TokenSymbol:      s.TokenSymbol,
		TokenDecimals:    int(s.TokenDecimals),
		Chain:            string(s.Chain),
		DestinationChain: string(s.DestinationChain),
		RecipientAddress: s.RecipientAddress,
		PayerAddress:     s.PayerAddress,
		CreatorAddress:   s.CreatorAddress,
		Frequency:        string(s.Frequency),
		NextBillingDate:  s.NextBillingDate,
		LastBillingDate:  s.LastBillingDate.Ptr(),
		Status:           string(s.Status),
		Description:      s.Description.Ptr(),
		CancelledAt:      s.CancelledAt.Ptr(),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func subscriptionToEntity(m *models.Subscription) *entities.Subscription {
	return &entities.Subscription{
		ID:               m.ID,
		Name:             m.Name,
		Amount:           m.Amount,
		TokenAddress:     m.TokenAddress,
		TokenSymbol:      m.TokenSymbol,
		TokenDecimals:    uint8(m.TokenDecimals),
		Chain:            entities.ChainID(m.Chain),
		DestinationChain: entities.ChainID(m.DestinationChain),
		RecipientAddress: m.RecipientAddress,
		PayerAddress:     m.PayerAddress,
		CreatorAddress:   m.CreatorAddress,
		Frequency:        entities.BillingFrequency(m.Frequency),
		NextBillingDate:  m.NextBillingDate,
		LastBillingDate:  null.TimeFromPtr(m.LastBillingDate),
		Status:           entities.SubscriptionStatus(m.Status),
		Description:      null.StringFromPtr(m.Description),
		CancelledAt:      null.TimeFromPtr(m.CancelledAt),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
