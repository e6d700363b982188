package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/insightlabs/analytics-dashboard/internal/config"
	"github.com/insightlabs/analytics-dashboard/internal/datasource"
	"github.com/insightlabs/analytics-dashboard/internal/metrics"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

// Fetcher is the slice of the repository the facade needs.
type Fetcher interface {
	Fetch(ctx context.Context, p datasource.Params) (datasource.RowSet, error)
}

// Facade caches repository results keyed by query parameters. The cache is
// strictly a performance optimization: any store failure is logged, counted
// and recovered by fetching directly.
type Facade struct {
	store   Store
	fetcher Fetcher
	ttl     time.Duration
	log     *logger.Logger
}

// NewFacade wraps fetcher with the given store and TTL. A nil store or a
// zero TTL disables caching entirely.
func NewFacade(store Store, fetcher Fetcher, ttl time.Duration, log *logger.Logger) *Facade {
	return &Facade{store: store, fetcher: fetcher, ttl: ttl, log: log}
}

// NewStore builds the store selected by configuration.
func NewStore(cfg *config.Config) (Store, error) {
	if cfg.CacheType == config.CacheRedis {
		return NewRedis(cfg.RedisURL)
	}
	return NewMemory(), nil
}

// GetOrFetch returns a fresh cached row set for p, or fetches from the
// repository and caches the result for the configured TTL.
func (f *Facade) GetOrFetch(ctx context.Context, p datasource.Params) (datasource.RowSet, error) {
	if f.store == nil || f.ttl <= 0 {
		return f.fetcher.Fetch(ctx, p)
	}

	key := p.CacheKey()
	raw, ok, err := f.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheError("get")
		f.log.WithError(err).WithField("key", key).Warn("cache get failed; fetching directly")
	case ok:
		var rows datasource.RowSet
		if err := json.Unmarshal(raw, &rows); err == nil {
			metrics.CacheHit()
			return rows, nil
		}
		// Corrupt entry: treat as a miss and overwrite below.
		metrics.CacheError("get")
		f.log.WithField("key", key).Warn("discarding undecodable cache entry")
	default:
		metrics.CacheMiss()
	}

	rows, err := f.fetcher.Fetch(ctx, p)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(rows); err == nil {
		if err := f.store.Set(ctx, key, encoded, f.ttl); err != nil {
			metrics.CacheError("set")
			f.log.WithError(err).WithField("key", key).Warn("cache set failed")
		}
	}

	return rows, nil
}
