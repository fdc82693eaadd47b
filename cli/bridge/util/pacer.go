package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer выдерживает минимальный интервал между последовательными запросами.
// Нулевой интервал отключает ожидание.
type Pacer struct {
	limiter *rate.Limiter
}

func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
