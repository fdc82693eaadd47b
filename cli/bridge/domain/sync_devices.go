package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
)

type DeviceSource interface {
	GetDevices(ctx context.Context, token string) ([]types.Device, error)
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type StatePublisher interface {
	SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error
}

type ZoneResolver interface {
	Resolve(p types.Position2D) string
}

type AddressResolver interface {
	Address(ctx context.Context, p types.Position2D) (string, error)
}

type SnapshotSaver interface {
	Save(interface{ ToBytes() ([]byte, error) }) error
}

type Pacer interface {
	Wait(ctx context.Context) error
}

// SyncDevices – один цикл опроса вендора с публикацией свежих устройств
// в Home Assistant. Устройства обрабатываются строго последовательно.
type SyncDevices struct {
	Devices   DeviceSource
	Tokens    TokenSource
	Publisher StatePublisher
	Zones     ZoneResolver
	Pacer     Pacer
	Namer     EntityNamer

	// Необязательные зависимости: nil отключает геокодирование и трансляцию.
	Addresses AddressResolver
	Feed      SnapshotSaver

	// StepTimeout ограничивает получение списка устройств и публикацию
	// каждого устройства по отдельности. Ожидание паузы в него не входит,
	// поэтому длина цикла растет с числом устройств. 0 – без ограничения.
	StepTimeout time.Duration

	FreshnessWindow time.Duration
	Location        *time.Location
	Now             func() time.Time
}

type CycleReport struct {
	Total     int
	Published int
	Stale     int
	Invalid   int
	Failed    int
}

// Run выполняет цикл. Отмена ctx или ошибка ожидания паузы прерывают цикл
// целиком, оставшиеся устройства не считаются ошибками публикации.
func (domain *SyncDevices) Run(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	start := time.Now()
	defer metrics.ObserveCycle(start)

	devices, err := domain.fetch(ctx)
	if err != nil {
		return report, err
	}

	now := domain.now()
	report.Total = len(devices)
	seen := make(map[string]string, len(devices))

	for _, device := range devices {
		if ctx.Err() != nil {
			return report, domain.abort(ctx.Err())
		}

		if !IsFresh(device.PositionTime.String(), now, domain.FreshnessWindow, domain.Location) {
			report.Stale++
			metrics.DevicesSkipped.WithLabelValues("stale").Inc()
			log.WithField("device", device.ID.String()).Debugf("Позиция устарела: %q", device.PositionTime)
			continue
		}

		record, err := types.NewDeviceRecord(device)
		if err != nil {
			report.Invalid++
			metrics.DevicesSkipped.WithLabelValues("invalid").Inc()
			log.WithField("device", device.ID.String()).Warnf("Некорректная запись устройства: %v", err)
			continue
		}

		entityID := domain.Namer.Tracker(record)
		if owner, ok := seen[entityID]; ok {
			report.Invalid++
			metrics.DevicesSkipped.WithLabelValues("collision").Inc()
			log.WithFields(log.Fields{"device": record.ID, "owner": owner}).
				Warnf("Имя устройства совпадает с именем другого устройства: %s уже публикуется", entityID)
			continue
		}
		seen[entityID] = record.ID

		if err := domain.Pacer.Wait(ctx); err != nil {
			return report, domain.abort(err)
		}

		if err := domain.step(ctx, func(ctx context.Context) error { return domain.syncDevice(ctx, record) }); err != nil {
			report.Failed++
			metrics.PublishErrors.Inc()
			log.WithFields(log.Fields{"device": record.ID, "err": err}).Error("Ошибка публикации устройства")
			continue
		}

		report.Published++
		metrics.DevicesPublished.Inc()
	}

	metrics.Cycles.WithLabelValues("ok").Inc()
	log.Debugf("Цикл завершен: устройств %d, опубликовано %d, устаревших %d, некорректных %d, ошибок %d",
		report.Total, report.Published, report.Stale, report.Invalid, report.Failed)

	return report, nil
}

func (domain *SyncDevices) fetch(ctx context.Context) ([]types.Device, error) {
	var devices []types.Device

	err := domain.step(ctx, func(ctx context.Context) error {
		token, err := domain.Tokens.Token(ctx)
		if err != nil {
			metrics.Cycles.WithLabelValues("auth_error").Inc()
			return fmt.Errorf("не удалось получить токен вендора: %w", err)
		}

		devices, err = domain.Devices.GetDevices(ctx, token)
		if err != nil {
			if errors.Is(err, types.ErrAuth) {
				domain.Tokens.Invalidate()
			}
			metrics.Cycles.WithLabelValues("fetch_error").Inc()
			return fmt.Errorf("не удалось получить список устройств: %w", err)
		}
		return nil
	})

	return devices, err
}

func (domain *SyncDevices) step(ctx context.Context, fn func(ctx context.Context) error) error {
	if domain.StepTimeout <= 0 {
		return fn(ctx)
	}

	stepCtx, cancel := context.WithTimeout(ctx, domain.StepTimeout)
	defer cancel()
	return fn(stepCtx)
}

func (domain *SyncDevices) abort(err error) error {
	metrics.Cycles.WithLabelValues("aborted").Inc()
	return fmt.Errorf("цикл прерван: %w", err)
}

func (domain *SyncDevices) syncDevice(ctx context.Context, record types.DeviceRecord) error {
	attrs := DeviceAttributes(record)
	zone := domain.Zones.Resolve(record.Position)

	address := domain.resolveAddress(ctx, record)
	if address != "" {
		attrs = append(attrs, Attribute{Suffix: SuffixAddress, Value: address})
	}

	err := domain.publish(ctx, record, attrs, zone)
	domain.sendSnapshot(record, zone, address)

	return err
}

func (domain *SyncDevices) publish(ctx context.Context, record types.DeviceRecord, attrs []Attribute, zone string) error {
	for _, a := range attrs {
		if err := domain.Publisher.SetState(ctx, domain.Namer.Sensor(record, a.Suffix), a.Value, nil); err != nil {
			return err
		}
	}

	return domain.Publisher.SetState(ctx, domain.Namer.Tracker(record), zone, TrackerAttributes(record, attrs))
}

func (domain *SyncDevices) resolveAddress(ctx context.Context, record types.DeviceRecord) string {
	if domain.Addresses == nil {
		return ""
	}

	address, err := domain.Addresses.Address(ctx, record.Position)
	if err != nil {
		log.WithFields(log.Fields{"device": record.ID, "err": err}).Warn("Не удалось определить адрес")
		return ""
	}
	return address
}

func (domain *SyncDevices) sendSnapshot(record types.DeviceRecord, zone, address string) {
	if domain.Feed == nil {
		return
	}

	snapshot := types.DeviceSnapshot{
		ID:             record.ID,
		Name:           record.DisplayName(),
		Latitude:       record.Position.Latitude,
		Longitude:      record.Position.Longitude,
		Speed:          record.Speed,
		Bearing:        record.Bearing,
		Battery:        BatteryPercentage(record.BatteryVoltage),
		BatteryVoltage: record.BatteryVoltage,
		PositionTime:   record.PositionTime,
		Stopped:        record.Stopped,
		Signal:         record.Signal,
		Satellites:     record.Satellites,
		Zone:           zone,
		Address:        address,
		PublishedAt:    domain.now(),
	}

	if err := domain.Feed.Save(snapshot); err != nil {
		metrics.FeedErrors.Inc()
		log.WithFields(log.Fields{"device": record.ID, "err": err}).Warn("Не удалось передать снимок устройства")
	}
}

func (domain *SyncDevices) now() time.Time {
	if domain.Now != nil {
		return domain.Now()
	}
	return time.Now()
}
