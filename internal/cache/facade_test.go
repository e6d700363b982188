package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlabs/analytics-dashboard/internal/datasource"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	rows  datasource.RowSet
	err   error
}

func (f *countingFetcher) Fetch(context.Context, datasource.Params) (datasource.RowSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rows, f.err
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store unreachable")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store unreachable")
}
func (failingStore) Close() error { return nil }

func testRows() datasource.RowSet {
	return datasource.RowSet{{Date: "2026-01-01", Product: "Alpha", Revenue: 100, Cost: 40, Profit: 60}}
}

func newMemoryStore(t *testing.T) Store {
	t.Helper()
	store := NewMemory()
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	f := NewFacade(newMemoryStore(t), fetcher, time.Minute, logger.NewNop())

	p := datasource.Params{Teams: []string{"Data"}}

	first, err := f.GetOrFetch(context.Background(), p)
	require.NoError(t, err)
	second, err := f.GetOrFetch(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.count(), "second call must be a cache hit")
}

func TestGetOrFetchRefetchesAfterExpiry(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	f := NewFacade(newMemoryStore(t), fetcher, 20*time.Millisecond, logger.NewNop())

	p := datasource.Params{}
	_, err := f.GetOrFetch(context.Background(), p)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = f.GetOrFetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count(), "expired entry must be recomputed")
}

func TestGetOrFetchDistinctParams(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	f := NewFacade(newMemoryStore(t), fetcher, time.Minute, logger.NewNop())

	_, err := f.GetOrFetch(context.Background(), datasource.Params{Teams: []string{"Data"}})
	require.NoError(t, err)
	_, err = f.GetOrFetch(context.Background(), datasource.Params{Teams: []string{"Retail"}})
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.count())
}

func TestGetOrFetchStoreFailureFallsThrough(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	f := NewFacade(failingStore{}, fetcher, time.Minute, logger.NewNop())

	rows, err := f.GetOrFetch(context.Background(), datasource.Params{})
	require.NoError(t, err, "cache failure must never surface")
	assert.Equal(t, testRows(), rows)
	assert.Equal(t, 1, fetcher.count())

	// And again: still served by direct fetch, still no error.
	_, err = f.GetOrFetch(context.Background(), datasource.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count())
}

func TestGetOrFetchFetchErrorNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: &datasource.Error{Backend: "rest", Kind: datasource.KindBadResponse}}
	store := newMemoryStore(t)
	f := NewFacade(store, fetcher, time.Minute, logger.NewNop())

	p := datasource.Params{}
	_, err := f.GetOrFetch(context.Background(), p)
	require.Error(t, err)

	_, ok, storeErr := store.Get(context.Background(), p.CacheKey())
	require.NoError(t, storeErr)
	assert.False(t, ok, "failed fetches must not populate the cache")

	_, err = f.GetOrFetch(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, 2, fetcher.count())
}

func TestGetOrFetchCorruptEntryRecovered(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	store := newMemoryStore(t)
	f := NewFacade(store, fetcher, time.Minute, logger.NewNop())

	p := datasource.Params{}
	require.NoError(t, store.Set(context.Background(), p.CacheKey(), []byte("{corrupt"), time.Minute))

	rows, err := f.GetOrFetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, testRows(), rows)
	assert.Equal(t, 1, fetcher.count())
}

func TestGetOrFetchNilStoreDisablesCaching(t *testing.T) {
	fetcher := &countingFetcher{rows: testRows()}
	f := NewFacade(nil, fetcher, time.Minute, logger.NewNop())

	_, err := f.GetOrFetch(context.Background(), datasource.Params{})
	require.NoError(t, err)
	_, err = f.GetOrFetch(context.Background(), datasource.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count())
}
