package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

const (
	summaryPrefix     = "summary:"
	allSessionsKey    = summaryPrefix + "all"
	sessionKeyPrefix  = summaryPrefix + "s:"
	DefaultSummaryTTL = 30 * time.Second
)

// SummaryCache keeps computed analytics summaries per session. A nil
// *SummaryCache is valid and caches nothing.
//
// version counts invalidations made through this instance. Other processes
// sharing the store invalidate through the table, so a summary they race
// with can stay cached for up to one TTL.
type SummaryCache struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	version atomic.Uint64
}

func NewSummaryCache(store Store, ttl time.Duration, logger *slog.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "summary_cache"),
	}
}

// SummaryKey is the cache key for a session; the empty session covers every
// entry. Session keys live under their own prefix so no session id can land
// on the all-sessions key.
func SummaryKey(sessionID string) string {
	if sessionID == "" {
		return allSessionsKey
	}
	return sessionKeyPrefix + sessionID
}

// Version is read before computing a summary and handed back to Set.
func (c *SummaryCache) Version() uint64 {
	if c == nil {
		return 0
	}
	return c.version.Load()
}

// Get reports a cached summary. Misses, expiry and store errors all read as
// a miss; only unexpected errors are logged.
func (c *SummaryCache) Get(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.store.Get(ctx, SummaryKey(sessionID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheExpired) {
			c.logger.WarnContext(ctx, "summary cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var summary domain.AnalyticsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		c.logger.WarnContext(ctx, "summary cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	return &summary, true
}

// Set stores summary unless an invalidation happened after version was read.
func (c *SummaryCache) Set(ctx context.Context, sessionID string, summary domain.AnalyticsSummary, version uint64) {
	if c == nil || c.version.Load() != version {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		c.logger.WarnContext(ctx, "summary cache encode failed", slog.String("error", err.Error()))
		return
	}

	key := SummaryKey(sessionID)
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "summary cache write failed", slog.String("error", err.Error()))
		return
	}

	// an Invalidate that ran during the write may have missed this key
	if c.version.Load() != version {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "summary cache rollback failed", slog.String("error", err.Error()))
		}
	}
}

// Invalidate drops every cached summary. Any write to history can change
// both the session summary and the all-sessions one.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	c.version.Add(1)
	if _, err := c.store.DeletePattern(ctx, summaryPrefix+"%"); err != nil {
		c.logger.WarnContext(ctx, "summary cache invalidation failed", slog.String("error", err.Error()))
	}
}
