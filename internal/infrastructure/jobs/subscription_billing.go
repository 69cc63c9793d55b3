package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"paybridge.backend/internal/usecases"
	"paybridge.backend/pkg/logger"
)

type SubscriptionBiller interface {
	RunBilling(ctx context.Context) (*usecases.BillingReport, error)
}

// SubscriptionBillingJob periodically bills due subscriptions.
type SubscriptionBillingJob struct {
	ticker
	biller SubscriptionBiller
}

func NewSubscriptionBillingJob(biller SubscriptionBiller, interval time.Duration) *SubscriptionBillingJob {
	return &SubscriptionBillingJob{
		ticker: newTicker("subscription_billing", interval),
		biller: biller,
	}
}

func (j *SubscriptionBillingJob) Start(ctx context.Context) {
	j.run(ctx, j.runOnce)
}

func (j *SubscriptionBillingJob) runOnce(ctx context.Context) {
	report, err := j.biller.RunBilling(ctx)
	if err != nil {
		logger.Error(ctx, "Subscription billing run failed", zap.Error(err))
		return
	}
	if report.Processed == 0 && len(report.Errors) == 0 {
		return
	}
	logger.Info(ctx, "Subscription billing run",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
	)
}
