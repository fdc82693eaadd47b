package domain

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

type stubZoneSource struct {
	zones []types.Zone
	err   error
	calls int
}

func (s *stubZoneSource) GetZones(ctx context.Context) ([]types.Zone, error) {
	s.calls++
	return s.zones, s.err
}

func northOf(origin types.Position2D, meters float64) types.Position2D {
	return types.Position2D{
		Latitude:  origin.Latitude + meters/types.EarthRadiusMeters*180/math.Pi,
		Longitude: origin.Longitude,
	}
}

func TestZoneCacheResolve(t *testing.T) {
	log.SetOutput(io.Discard)

	source := &stubZoneSource{zones: []types.Zone{{Name: "Home", RadiusMeters: 200}}}
	cache := &ZoneCache{Source: source}
	require.NoError(t, cache.Refresh(context.Background()))

	assert.Equal(t, "Home", cache.Resolve(northOf(types.Position2D{}, 50)))
	assert.Equal(t, types.NotHome, cache.Resolve(northOf(types.Position2D{}, 500)))
}

func TestZoneCacheNeverPopulated(t *testing.T) {
	cache := &ZoneCache{}
	assert.Equal(t, types.NotHome, cache.Resolve(types.Position2D{}))
	assert.Nil(t, cache.Zones())
}

func TestZoneCacheEmptySnapshot(t *testing.T) {
	log.SetOutput(io.Discard)

	cache := &ZoneCache{Source: &stubZoneSource{}}
	require.NoError(t, cache.Refresh(context.Background()))
	assert.Equal(t, types.NotHome, cache.Resolve(types.Position2D{}))
}

func TestZoneCacheFirstMatchWins(t *testing.T) {
	log.SetOutput(io.Discard)

	source := &stubZoneSource{zones: []types.Zone{
		{Name: "Neighbourhood", RadiusMeters: 5000},
		{Name: "Home", RadiusMeters: 100},
	}}
	cache := &ZoneCache{Source: source}
	require.NoError(t, cache.Refresh(context.Background()))

	// Home is nearer, but Neighbourhood comes first in fetch order.
	assert.Equal(t, "Neighbourhood", cache.Resolve(types.Position2D{}))
}

func TestZoneCacheKeepsSnapshotOnFailure(t *testing.T) {
	log.SetOutput(io.Discard)

	source := &stubZoneSource{zones: []types.Zone{{Name: "Work", RadiusMeters: 300}}}
	cache := &ZoneCache{Source: source}
	require.NoError(t, cache.Refresh(context.Background()))

	source.zones = nil
	source.err = errors.New("connection refused")
	assert.Error(t, cache.Refresh(context.Background()))

	assert.Equal(t, "Work", cache.Resolve(types.Position2D{}))
	assert.Equal(t, 2, source.calls)
}

func TestZoneCacheSwapsWholesale(t *testing.T) {
	log.SetOutput(io.Discard)

	source := &stubZoneSource{zones: []types.Zone{{Name: "Work", RadiusMeters: 300}}}
	cache := &ZoneCache{Source: source}
	require.NoError(t, cache.Refresh(context.Background()))

	source.zones = []types.Zone{{Name: "Gym", Center: northOf(types.Position2D{}, 10000), RadiusMeters: 300}}
	require.NoError(t, cache.Refresh(context.Background()))

	assert.Equal(t, types.NotHome, cache.Resolve(types.Position2D{}))
	assert.Len(t, cache.Zones(), 1)
}
