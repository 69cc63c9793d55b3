package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"paybridge.backend/pkg/logger"
)

const paymentTimeoutBatch = 100

type StalePaymentExpirer interface {
	ExpireStale(ctx context.Context, timeout time.Duration, limit int) (int, error)
}

// PaymentTimeoutJob fails payments that stayed non-terminal longer than timeout.
type PaymentTimeoutJob struct {
	ticker
	expirer StalePaymentExpirer
	timeout time.Duration
}

func NewPaymentTimeoutJob(expirer StalePaymentExpirer, timeout, interval time.Duration) *PaymentTimeoutJob {
	return &PaymentTimeoutJob{
		ticker:  newTicker("payment_timeout", interval),
		expirer: expirer,
		timeout: timeout,
	}
}

func (j *PaymentTimeoutJob) Start(ctx context.Context) {
	j.run(ctx, j.expireStale)
}

func (j *PaymentTimeoutJob) expireStale(ctx context.Context) {
	expired, err := j.expirer.ExpireStale(ctx, j.timeout, paymentTimeoutBatch)
	if err != nil {
		logger.Error(ctx, "Error expiring stale payments", zap.Error(err))
		return
	}
	if expired > 0 {
		logger.Info(ctx, "Expired stale payments", zap.Int("count", expired), zap.Duration("timeout", j.timeout))
	}
}
