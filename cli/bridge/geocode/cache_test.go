package geocode

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Reverse(ctx context.Context, pos types.Position2D) (types.AddressEntry, error) {
	p.calls++
	if p.err != nil {
		return types.AddressEntry{}, p.err
	}
	return types.AddressEntry{DisplayName: "Address " + string(rune('A'+p.calls-1))}, nil
}

// memoryStore records calls made by the cache.
type memoryStore struct {
	entries []types.AddressEntry
	appends int
	trims   []int
}

func (m *memoryStore) Init(map[string]string) error { return nil }
func (m *memoryStore) Close() error                 { return nil }

func (m *memoryStore) Load(ctx context.Context) ([]types.AddressEntry, error) {
	return append([]types.AddressEntry(nil), m.entries...), nil
}

func (m *memoryStore) Append(ctx context.Context, entry types.AddressEntry) error {
	m.appends++
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryStore) Trim(ctx context.Context, keep int) error {
	m.trims = append(m.trims, keep)
	if len(m.entries) > keep {
		m.entries = m.entries[len(m.entries)-keep:]
	}
	return nil
}

func northOf(origin types.Position2D, meters float64) types.Position2D {
	return types.Position2D{
		Latitude:  origin.Latitude + meters/types.EarthRadiusMeters*180/math.Pi,
		Longitude: origin.Longitude,
	}
}

var lisbon = types.Position2D{Latitude: 38.7223, Longitude: -9.1393}

func TestLookupReusesNearbyEntry(t *testing.T) {
	log.SetOutput(io.Discard)
	provider := &countingProvider{}
	cache, err := NewCache(context.Background(), provider, nil, 100, 0)
	require.NoError(t, err)

	first, err := cache.Lookup(context.Background(), lisbon)
	require.NoError(t, err)
	second, err := cache.Lookup(context.Background(), northOf(lisbon, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, lisbon, first.Request)
}

func TestLookupCallsProviderForDistantPoint(t *testing.T) {
	log.SetOutput(io.Discard)
	provider := &countingProvider{}
	cache, err := NewCache(context.Background(), provider, nil, 100, 0)
	require.NoError(t, err)

	first, err := cache.Address(context.Background(), lisbon)
	require.NoError(t, err)
	second, err := cache.Address(context.Background(), northOf(lisbon, 200))
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, "Address A", first)
	assert.Equal(t, "Address B", second)
	assert.Equal(t, 2, cache.Len())
}

func TestLookupReturnsFirstMatchInInsertionOrder(t *testing.T) {
	log.SetOutput(io.Discard)
	store := &memoryStore{entries: []types.AddressEntry{
		{Request: northOf(lisbon, 60), DisplayName: "Older"},
		{Request: lisbon, DisplayName: "Exact"},
	}}
	cache, err := NewCache(context.Background(), &countingProvider{}, store, 100, 0)
	require.NoError(t, err)

	address, err := cache.Address(context.Background(), lisbon)
	require.NoError(t, err)
	assert.Equal(t, "Older", address)
}

func TestLookupProviderFailureCachesNothing(t *testing.T) {
	log.SetOutput(io.Discard)
	provider := &countingProvider{err: errors.New("rate limited")}
	store := &memoryStore{}
	cache, err := NewCache(context.Background(), provider, store, 100, 0)
	require.NoError(t, err)

	_, err = cache.Lookup(context.Background(), lisbon)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 0, store.appends)
}

func TestLookupPersistsAndEvictsOldest(t *testing.T) {
	log.SetOutput(io.Discard)
	provider := &countingProvider{}
	store := &memoryStore{}
	cache, err := NewCache(context.Background(), provider, store, 100, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cache.Lookup(context.Background(), northOf(lisbon, float64(i)*1000))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, store.appends)
	assert.Equal(t, []int{2}, store.trims)
	assert.Equal(t, 2, cache.Len())

	// The first point was evicted and has to be resolved again.
	_, err = cache.Lookup(context.Background(), lisbon)
	require.NoError(t, err)
	assert.Equal(t, 4, provider.calls)
}

func TestNewCacheTrimsOversizedStore(t *testing.T) {
	log.SetOutput(io.Discard)
	store := &memoryStore{entries: []types.AddressEntry{
		{Request: lisbon, DisplayName: "A"},
		{Request: northOf(lisbon, 1000), DisplayName: "B"},
		{Request: northOf(lisbon, 2000), DisplayName: "C"},
	}}
	cache, err := NewCache(context.Background(), &countingProvider{}, store, 100, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len())
	address, err := cache.Address(context.Background(), northOf(lisbon, 2000))
	require.NoError(t, err)
	assert.Equal(t, "C", address)
}
