package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
)

// Warmer pre-fetches a credential. *auth.IAMAuthenticator satisfies it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// TokenRefresher keeps IAM tokens warm so that no API call pays for a token
// exchange. Each tick warms every registered authenticator.
type TokenRefresher struct {
	logger   *zap.Logger
	warmers  map[string]Warmer
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTokenRefresher constructs a background job. warmers is keyed by a name
// used in logs (usually the instance).
func NewTokenRefresher(logger *zap.Logger, warmers map[string]Warmer, interval time.Duration) *TokenRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRefresher{
		logger:   logger,
		warmers:  warmers,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start warms once immediately, then on every tick until Stop or ctx ends.
func (r *TokenRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("token_refresher.started",
		zap.Duration("interval", r.interval),
		zap.Int("authenticators", len(r.warmers)))

	r.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("token_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("token_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the refresher. It is safe to call more than once.
func (r *TokenRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RunOnce warms every authenticator and returns how many failed.
func (r *TokenRefresher) RunOnce(ctx context.Context) int {
	start := time.Now()
	failed := 0
	for name, w := range r.warmers {
		if err := w.Warm(ctx); err != nil {
			failed++
			r.logger.Warn("token_refresher.warm_failed",
				zap.String("instance", name),
				zap.Error(err))
			metrics.IncError("token_refresher", "warm_failed")
			continue
		}
	}
	if failed == 0 && len(r.warmers) > 0 {
		metrics.SetLastTokenRefresh(time.Now())
	}
	r.logger.Debug("token_refresher.cycle",
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return failed
}
