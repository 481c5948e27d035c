// Package maintenance runs periodic background tasks as Go tickers.
// Retention of the request log is an administrative concern kept out of the
// reconciliation flow, so it lives here.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes request log rows older than a cutoff, returning how many
// rows went away. *store.RequestLogStore satisfies it.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	SweepInterval    time.Duration // how often the retention sweep runs
	RequestLogMaxAge time.Duration // log rows older than this are pruned
}

// DefaultConfig returns sensible production defaults. Retention is disabled
// unless a max age is configured.
func DefaultConfig(maxAge time.Duration) Config {
	return Config{
		SweepInterval:    1 * time.Hour,
		RequestLogMaxAge: maxAge,
	}
}

// Start launches the retention sweep ticker. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, requests Pruner, cfg Config, logger *slog.Logger) {
	if cfg.SweepInterval <= 0 || cfg.RequestLogMaxAge <= 0 {
		logger.Info("Request log retention disabled")
		return
	}

	logger.Info("Request log retention started",
		"interval", cfg.SweepInterval,
		"max_age", cfg.RequestLogMaxAge)

	t := time.NewTicker(cfg.SweepInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			sweep(ctx, requests, cfg.RequestLogMaxAge, logger)
		case <-ctx.Done():
			logger.Info("Request log retention stopped")
			return
		}
	}
}

// sweep prunes request log rows older than the retention window.
func sweep(ctx context.Context, requests Pruner, maxAge time.Duration, logger *slog.Logger) {
	cutoff := time.Now().Add(-maxAge)
	pruned, err := requests.Prune(ctx, cutoff)
	if err != nil {
		logger.Warn("Retention sweep failed", "error", err)
		return
	}
	if pruned > 0 {
		logger.Info("Retention sweep pruned old request log rows", "count", pruned)
	}
}
