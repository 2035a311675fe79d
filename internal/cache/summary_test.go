package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is a Store kept in a map, without expiry.
type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memStore) DeletePattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.entries {
		if pattern == summaryPrefix+"%" && len(k) >= len(summaryPrefix) && k[:len(summaryPrefix)] == summaryPrefix {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "summary:all", SummaryKey(""))
	assert.Equal(t, "summary:s:abc", SummaryKey("abc"))
	assert.NotEqual(t, SummaryKey(""), SummaryKey("*"))
	assert.NotEqual(t, SummaryKey(""), SummaryKey("all"))
}

func TestSummaryCache_RoundTrip(t *testing.T) {
	store := newMemStore()
	c := NewSummaryCache(store, 0, discardLogger())
	ctx := context.Background()

	_, ok := c.Get(ctx, "s1")
	assert.False(t, ok)

	summary := domain.AnalyticsSummary{
		TotalAnalyses:       2,
		TotalFaces:          3,
		AvgAge:              31.5,
		EmotionDistribution: map[string]int{"Happy": 3},
		RaceDistribution:    map[string]int{"Asian": 3},
	}
	c.Set(ctx, "s1", summary, c.Version())

	got, ok := c.Get(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, summary, *got)
	assert.Equal(t, DefaultSummaryTTL, store.ttls["summary:s:s1"])

	_, ok = c.Get(ctx, "")
	assert.False(t, ok, "sessions are cached independently")
}

func TestSummaryCache_Invalidate(t *testing.T) {
	store := newMemStore()
	c := NewSummaryCache(store, time.Minute, discardLogger())
	ctx := context.Background()

	c.Set(ctx, "", domain.AnalyticsSummary{TotalAnalyses: 1}, c.Version())
	c.Set(ctx, "s1", domain.AnalyticsSummary{TotalAnalyses: 1}, c.Version())

	c.Invalidate(ctx)

	_, ok := c.Get(ctx, "")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "s1")
	assert.False(t, ok)
}

func TestSummaryCache_StoreErrorsAreMisses(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	c := NewSummaryCache(store, time.Minute, discardLogger())

	_, ok := c.Get(context.Background(), "s1")
	assert.False(t, ok)
}

func TestSummaryCache_CorruptEntry(t *testing.T) {
	store := newMemStore()
	store.entries["summary:s:s1"] = []byte("{not json")
	c := NewSummaryCache(store, time.Minute, discardLogger())

	_, ok := c.Get(context.Background(), "s1")
	assert.False(t, ok)
}

func TestSummaryCache_Nil(t *testing.T) {
	var c *SummaryCache
	ctx := context.Background()

	_, ok := c.Get(ctx, "s1")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		c.Set(ctx, "s1", domain.AnalyticsSummary{}, c.Version())
		c.Invalidate(ctx)
	})
}

func TestSummaryCache_OverPGCache(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := NewSummaryCache(NewPGCache(mock), time.Minute, discardLogger())
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO cache_entries").
		WithArgs("summary:s:s1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM cache_entries WHERE key LIKE").
		WithArgs("summary:%").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	c.Set(ctx, "s1", domain.AnalyticsSummary{TotalAnalyses: 4}, c.Version())
	c.Invalidate(ctx)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryCache_SessionCannotReadGlobalSummary(t *testing.T) {
	store := newMemStore()
	c := NewSummaryCache(store, time.Minute, discardLogger())
	ctx := context.Background()

	c.Set(ctx, "", domain.AnalyticsSummary{TotalAnalyses: 9}, c.Version())

	_, ok := c.Get(ctx, "*")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "all")
	assert.False(t, ok)
}

func TestSummaryCache_SetAfterInvalidateIsDropped(t *testing.T) {
	store := newMemStore()
	c := NewSummaryCache(store, time.Minute, discardLogger())
	ctx := context.Background()

	version := c.Version()
	// history changes while the summary is being computed
	c.Invalidate(ctx)
	c.Set(ctx, "s1", domain.AnalyticsSummary{TotalAnalyses: 1}, version)

	_, ok := c.Get(ctx, "s1")
	assert.False(t, ok)

	c.Set(ctx, "s1", domain.AnalyticsSummary{TotalAnalyses: 2}, c.Version())
	got, ok := c.Get(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalAnalyses)
}

// invalidatingStore runs an invalidation in the middle of the first write.
type invalidatingStore struct {
	*memStore
	cache *SummaryCache
	fired bool
}

func (s *invalidatingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.memStore.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if !s.fired {
		s.fired = true
		s.cache.version.Add(1)
	}
	return nil
}

func TestSummaryCache_InvalidateDuringWriteRollsBack(t *testing.T) {
	store := &invalidatingStore{memStore: newMemStore()}
	c := NewSummaryCache(store, time.Minute, discardLogger())
	store.cache = c
	ctx := context.Background()

	c.Set(ctx, "s1", domain.AnalyticsSummary{TotalAnalyses: 1}, c.Version())

	_, ok := c.Get(ctx, "s1")
	assert.False(t, ok)
}
