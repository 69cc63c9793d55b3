package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"paybridge.backend/internal/domain/entities"
)

// SubscriptionRepository defines subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entities.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Subscription, error)
	List(ctx context.Context, filter entities.SubscriptionFilter, limit, offset int) ([]*entities.Subscription, int64, error)
	// ListDue returns ACTIVE subscriptions with next_billing_date <= now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.Subscription, error)
	// Advance applies a scheduler update only if next_billing_date still
	// equals update.PreviousNextBillingDate. It returns false when another
	// run already advanced the subscription.
	Advance(ctx context.Context, update entities.SubscriptionUpdate) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus, cancelledAt *time.Time) error
}
