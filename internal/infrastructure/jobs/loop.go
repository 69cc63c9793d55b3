package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"paybridge.backend/pkg/logger"
)

// ticker runs fn every interval until the context is cancelled or Stop is called.
type ticker struct {
	name     string
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func newTicker(name string, interval time.Duration) ticker {
	if interval <= 0 {
		interval = time.Minute
	}
	return ticker{name: name, interval: interval, stop: make(chan struct{})}
}

func (t *ticker) run(ctx context.Context, fn func(ctx context.Context)) {
	logger.Info(ctx, "Starting background job", zap.String("job", t.name), zap.Duration("interval", t.interval))

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Background job stopped (context cancelled)", zap.String("job", t.name))
			return
		case <-t.stop:
			logger.Info(ctx, "Background job stopped", zap.String("job", t.name))
			return
		case <-tk.C:
			fn(ctx)
		}
	}
}

// Stop ends the loop. It is safe to call more than once.
func (t *ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
