// Package cache memoizes computed day aggregates on top of pkg/cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"SalesPulse/internal/domain/repository"
	pkgcache "SalesPulse/pkg/cache"
	applogger "SalesPulse/pkg/logger"
)

// HistoryCache coalesces concurrent misses for one key into a single
// compute and stores successful results for their TTL.
type HistoryCache struct {
	store   pkgcache.Service
	group   singleflight.Group
	log     *applogger.Logger
	metrics repository.Metrics
}

// NewHistoryCache wraps store. metrics may be nil.
func NewHistoryCache(store pkgcache.Service, log *applogger.Logger, metrics repository.Metrics) *HistoryCache {
	if log == nil {
		log = applogger.Nop()
	}
	return &HistoryCache{
		store:   store,
		log:     log.With(applogger.String("component", "history_cache")),
		metrics: metrics,
	}
}

// Store exposes the backing cache, for locks and invalidation.
func (h *HistoryCache) Store() pkgcache.Service {
	return h.store
}

// Invalidate drops every key starting with prefix.
func (h *HistoryCache) Invalidate(ctx context.Context, prefix string) error {
	return h.store.DeleteByPattern(ctx, pkgcache.BuildPattern(prefix))
}

func (h *HistoryCache) record(key, result string) {
	if h.metrics != nil {
		h.metrics.RecordCache(keyKind(key), result)
	}
}

// keyKind keeps metric labels bounded: "sales_2024-05-01_raw" -> "sales_raw".
func keyKind(key string) string {
	if strings.HasPrefix(key, "sales_prediction") {
		return "prediction"
	}
	kind, _, _ := strings.Cut(key, "_")
	if strings.HasSuffix(key, "_raw") {
		kind += "_raw"
	}
	return kind
}

// GetOrCompute returns the value cached under key or runs compute once for
// all concurrent callers of that key. Errors from compute are returned to
// every waiter and never cached. A broken cache degrades to computing
// directly. Waiters share one result; it must be treated as read-only.
func GetOrCompute[T any](ctx context.Context, h *HistoryCache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	var cached T
	err := h.store.Get(ctx, key, &cached)
	switch {
	case err == nil:
		h.record(key, "hit")
		return cached, nil
	case errors.Is(err, pkgcache.ErrCacheMiss):
		h.record(key, "miss")
	default:
		h.record(key, "error")
		h.log.Warn("cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	v, err, shared := h.group.Do(key, func() (interface{}, error) {
		// detached so one caller hanging up does not fail the others
		val, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := h.store.Set(context.WithoutCancel(ctx), key, val, ttl); err != nil {
			h.log.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		h.record(key, "shared")
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: unexpected %T", key, v)
	}
	return out, nil
}
