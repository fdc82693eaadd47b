package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
)

type Provider interface {
	Reverse(ctx context.Context, p types.Position2D) (types.AddressEntry, error)
}

// Cache отвечает на запрос адреса записью, полученной ранее для точки
// ближе ProximityMeters. Записи просматриваются в порядке добавления.
type Cache struct {
	provider   Provider
	store      Store
	proximity  float64
	maxEntries int

	mu      sync.Mutex
	entries []types.AddressEntry
}

// NewCache загружает записи из хранилища. store может быть nil,
// тогда кэш живет только в памяти. maxEntries = 0 снимает ограничение.
func NewCache(ctx context.Context, provider Provider, store Store, proximity float64, maxEntries int) (*Cache, error) {
	c := &Cache{
		provider:   provider,
		store:      store,
		proximity:  proximity,
		maxEntries: maxEntries,
	}

	if store != nil {
		entries, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить кэш адресов: %w", err)
		}
		c.entries = entries
		log.Infof("Загружено адресов из кэша: %d", len(entries))
	}

	c.evict(ctx)

	return c, nil
}

func (c *Cache) Lookup(ctx context.Context, p types.Position2D) (types.AddressEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if entry.Request.DistanceTo(p) < c.proximity {
			metrics.GeocodeLookups.WithLabelValues("hit").Inc()
			return entry, nil
		}
	}

	entry, err := c.provider.Reverse(ctx, p)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return types.AddressEntry{}, err
	}
	metrics.GeocodeLookups.WithLabelValues("miss").Inc()

	entry.Request = p
	c.entries = append(c.entries, entry)

	if c.store != nil {
		if err := c.store.Append(ctx, entry); err != nil {
			log.WithField("err", err).Warn("Не удалось сохранить адрес в хранилище кэша")
		}
	}
	c.evict(ctx)

	return entry, nil
}

// Address возвращает человекочитаемый адрес точки.
func (c *Cache) Address(ctx context.Context, p types.Position2D) (string, error) {
	entry, err := c.Lookup(ctx, p)
	if err != nil {
		return "", err
	}
	if entry.DisplayName == "" {
		return "", fmt.Errorf("%w: в ответе геокодера нет адреса", types.ErrDecode)
	}
	return entry.DisplayName, nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict удаляет самые старые записи сверх maxEntries.
func (c *Cache) evict(ctx context.Context) {
	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	kept := make([]types.AddressEntry, c.maxEntries)
	copy(kept, c.entries[len(c.entries)-c.maxEntries:])
	c.entries = kept

	if c.store != nil {
		if err := c.store.Trim(ctx, c.maxEntries); err != nil {
			log.WithField("err", err).Warn("Не удалось сократить хранилище кэша адресов")
		}
	}
}
