package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is the in-process store (CACHE_TYPE=SimpleCache). Entries are
// process-local and lost on restart.
type Memory struct {
	cache *ttlcache.Cache[string, []byte]
}

var _ Store = (*Memory)(nil)

// NewMemory builds an in-process store. Expiry is fixed at write time, so
// reads do not extend an entry's lifetime.
func NewMemory() *Memory {
	c := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &Memory{cache: c}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.cache.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)
	return nil
}

func (m *Memory) Close() error {
	m.cache.Stop()
	return nil
}
