package cache

import (
	"context"
	"log/slog"
	"time"
)

// Expirer is implemented by stores that can purge expired entries.
type Expirer interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Janitor periodically removes expired cache entries
type Janitor struct {
	store    Expirer
	logger   *slog.Logger
	interval time.Duration
}

func NewJanitor(store Expirer, logger *slog.Logger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Janitor{
		store:    store,
		logger:   logger.With("component", "cache_janitor"),
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("cache janitor started", "interval", j.interval)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cache janitor stopped")
			return nil
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	deleted, err := j.store.CleanupExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired cache entries", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Debug("deleted expired cache entries", "count", deleted)
	}
}
