package domain

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
)

type ZoneSource interface {
	GetZones(ctx context.Context) ([]types.Zone, error)
}

// ZoneCache хранит снимок зон автоматизации. Снимок заменяется целиком,
// читатели никогда не видят частично обновленный список.
type ZoneCache struct {
	Source ZoneSource

	zones atomic.Pointer[[]types.Zone]
}

func (c *ZoneCache) Refresh(ctx context.Context) error {
	zones, err := c.Source.GetZones(ctx)
	if err != nil {
		metrics.ZoneRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("не удалось получить список зон: %w", err)
	}

	snapshot := make([]types.Zone, len(zones))
	copy(snapshot, zones)
	c.zones.Store(&snapshot)

	metrics.ZoneRefreshes.WithLabelValues("ok").Inc()
	metrics.ZonesCached.Set(float64(len(snapshot)))
	log.Debugf("Кэш зон обновлен, зон: %d", len(snapshot))

	return nil
}

func (c *ZoneCache) Zones() []types.Zone {
	snapshot := c.zones.Load()
	if snapshot == nil {
		return nil
	}
	return *snapshot
}

// Resolve возвращает имя первой зоны (в порядке получения), содержащей точку,
// либо types.NotHome.
func (c *ZoneCache) Resolve(p types.Position2D) string {
	for _, zone := range c.Zones() {
		if zone.Contains(p) {
			return zone.Name
		}
	}
	return types.NotHome
}
