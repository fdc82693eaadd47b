package hass

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

const breakerName = "hass-api"

type API interface {
	GetZones(ctx context.Context) ([]types.Zone, error)
	SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error
}

// BreakerClient размыкает цепь после серии транспортных ошибок, чтобы при
// недоступном Home Assistant цикл не ждал таймаута на каждом запросе.
// Ошибки 4xx на предохранитель не влияют.
type BreakerClient struct {
	api API
	cb  *gobreaker.CircuitBreaker[interface{}]
}

func NewBreakerClient(api API, consecutiveFailures uint32, openTimeout time.Duration) *BreakerClient {
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, types.ErrTransport)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).Warnf("Предохранитель: %s -> %s", from, to)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{api: api, cb: cb}
}

func (b *BreakerClient) GetZones(ctx context.Context) ([]types.Zone, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.api.GetZones(ctx)
	})
	if err != nil {
		return nil, wrapRejected(err)
	}
	zones, _ := result.([]types.Zone)
	return zones, nil
}

func (b *BreakerClient) SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.api.SetState(ctx, entityID, state, attributes)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %w", types.ErrPublish, entityID, wrapRejected(err))
		}
		return err
	}
	return nil
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func wrapRejected(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: Home Assistant недоступен: %w", types.ErrTransport, err)
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
