package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_cycles_total",
		Help: "Циклы синхронизации устройств по результату",
	}, []string{"result"})
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracksync_cycle_duration_seconds",
		Help:    "Длительность цикла синхронизации",
		Buckets: prometheus.DefBuckets,
	})
	DevicesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksync_devices_published_total",
		Help: "Устройства, состояние которых опубликовано",
	})
	DevicesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_devices_skipped_total",
		Help: "Пропущенные устройства по причине",
	}, []string{"reason"})
	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksync_publish_errors_total",
		Help: "Ошибки публикации состояния устройства",
	})
	TokenLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_token_logins_total",
		Help: "Попытки получения токена вендора по результату",
	}, []string{"result"})
	ZoneRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_zone_refreshes_total",
		Help: "Обновления кэша зон по результату",
	}, []string{"result"})
	ZonesCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracksync_zones_cached",
		Help: "Количество зон в кэше",
	})
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_geocode_lookups_total",
		Help: "Обращения к кэшу геокодирования (hit, miss, error)",
	}, []string{"result"})
	FeedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksync_feed_errors_total",
		Help: "Ошибки отправки снимков устройств в брокеры",
	})
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tracksync_circuit_breaker_state",
		Help: "Состояние предохранителя (0 – закрыт, 1 – полуоткрыт, 2 – открыт)",
	}, []string{"name"})
)

func ObserveCycle(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}
