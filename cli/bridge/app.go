package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/config"
	"github.com/daniil11ru/tracksync/cli/bridge/domain"
	"github.com/daniil11ru/tracksync/cli/bridge/geocode"
	"github.com/daniil11ru/tracksync/cli/bridge/server"
	"github.com/daniil11ru/tracksync/cli/bridge/source/hass"
	"github.com/daniil11ru/tracksync/cli/bridge/source/tracker"
	"github.com/daniil11ru/tracksync/cli/bridge/storage"
	"github.com/daniil11ru/tracksync/cli/bridge/util"
	cron "github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	breakerFailures    = 5
	breakerOpenTimeout = 30 * time.Second
)

type app struct {
	conf config.Settings

	// ctx отменяется при остановке и прерывает текущий цикл.
	ctx    context.Context
	cancel context.CancelFunc

	running  sync.WaitGroup
	inflight atomic.Int32

	zones  *domain.ZoneCache
	sync   *domain.SyncDevices
	tokens *tracker.TokenManager

	geocodeStore geocode.Store
	feedRepo     *storage.Repository
	feed         *storage.AsyncRepository

	cronScheduler *cron.Cron
	server        *server.Server
}

func newApp(ctx context.Context, conf config.Settings) (*app, error) {
	loc, err := conf.GetVendorLocation()
	if err != nil {
		return nil, err
	}

	vendor := tracker.NewClient(tracker.Settings{
		LoginURL:        conf.Vendor.LoginURL,
		LoginData:       conf.Vendor.LoginData,
		DevicesURL:      conf.Vendor.DevicesURL,
		DevicesBaseData: conf.Vendor.DevicesBaseData,
		Timeout:         conf.GetVendorHTTPTimeout(),
	})
	tokens := &tracker.TokenManager{Authenticator: vendor}

	hassClient := hass.NewBreakerClient(hass.NewClient(hass.Settings{
		URL:     conf.Hass.URL,
		Token:   conf.Hass.Token,
		Timeout: conf.GetHassHTTPTimeout(),
	}), breakerFailures, breakerOpenTimeout)

	baseCtx, cancel := context.WithCancel(context.Background())
	a := &app{
		conf:   conf,
		ctx:    baseCtx,
		cancel: cancel,
		tokens: tokens,
		zones:  &domain.ZoneCache{Source: hassClient},
		server: server.NewServer(conf.GetListenAddress()),
	}

	a.sync = &domain.SyncDevices{
		Devices:         vendor,
		Tokens:          tokens,
		Publisher:       hassClient,
		Zones:           a.zones,
		Pacer:           util.NewPacer(conf.GetPublishPace()),
		Namer:           domain.EntityNamer{Prefix: conf.Hass.EntityPrefix},
		StepTimeout:     conf.GetStepTimeout(),
		FreshnessWindow: conf.GetFreshnessWindow(),
		Location:        loc,
	}

	if err := a.initGeocode(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	if err := a.initFeed(); err != nil {
		a.Shutdown()
		return nil, err
	}

	return a, nil
}

func (a *app) initGeocode(ctx context.Context) error {
	if !a.conf.IsGeocodeEnabled() {
		log.Warn("LOCATIONIQ_TOKEN не задан, определение адресов отключено")
		return nil
	}

	store, err := geocode.LoadStore(a.conf.Geocode.Store)
	if err != nil {
		return fmt.Errorf("не удалось подключить хранилище кэша адресов %q: %w", a.conf.Geocode.Store["type"], err)
	}
	a.geocodeStore = store

	provider := geocode.NewLocationIQ(a.conf.Geocode.URL, a.conf.Geocode.APIKey, a.conf.GetVendorHTTPTimeout())
	cache, err := geocode.NewCache(ctx, provider, store, a.conf.Geocode.ProximityMeters, a.conf.Geocode.MaxEntries)
	if err != nil {
		return err
	}

	a.sync.Addresses = cache
	return nil
}

func (a *app) initFeed() error {
	if len(a.conf.Feed) == 0 {
		return nil
	}

	a.feedRepo = storage.NewRepository()
	if err := a.feedRepo.LoadStorages(a.conf.Feed); err != nil {
		return fmt.Errorf("не удалось загрузить хранилища трансляции: %w", err)
	}

	a.feed = storage.NewAsyncRepository(a.feedRepo, a.conf.FeedBuffer, a.conf.FeedWorkers)
	a.sync.Feed = a.feed
	return nil
}

func (a *app) runCycle() {
	a.inflight.Add(1)
	defer a.inflight.Add(-1)

	if _, err := a.sync.Run(a.ctx); err != nil {
		log.WithField("err", err).Warn("Цикл синхронизации прерван")
	}
}

func (a *app) refreshZones() {
	ctx, cancel := context.WithTimeout(a.ctx, a.conf.GetStepTimeout())
	defer cancel()

	if err := a.zones.Refresh(ctx); err != nil {
		log.WithField("err", err).Warn("Не удалось обновить зоны, используется прежний список")
	}
}

// Start выполняет первое обновление зон и цикл синхронизации, затем
// запускает планировщик и HTTP-слушатель. Запуски одного задания не пересекаются.
func (a *app) Start() error {
	logger := cron.PrintfLogger(log.StandardLogger())
	a.cronScheduler = cron.New(cron.WithChain(cron.Recover(logger)))

	zonesJob := cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(a.refreshZones))
	syncJob := cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(a.runCycle))

	a.cronScheduler.Schedule(cron.Every(a.conf.GetZoneRefreshInterval()), zonesJob)
	a.cronScheduler.Schedule(cron.Every(a.conf.GetPollInterval()), syncJob)

	zonesJob.Run()

	a.running.Add(1)
	go func() {
		defer a.running.Done()
		syncJob.Run()
	}()

	a.cronScheduler.Start()
	log.Infof("Запланирована синхронизация каждые %s, обновление зон каждые %s",
		a.conf.GetPollInterval(), a.conf.GetZoneRefreshInterval())

	go func() {
		if err := a.server.Run(); err != nil {
			log.Fatalf("Не удалось запустить HTTP-слушатель: %v", err)
		}
	}()

	return nil
}

// Shutdown прерывает текущий цикл и дожидается его завершения, включая
// первый запуск вне планировщика, и только затем закрывает хранилища.
func (a *app) Shutdown() {
	a.cancel()

	done := make(chan struct{})
	go func() {
		if a.cronScheduler != nil {
			<-a.cronScheduler.Stop().Done()
		}
		a.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Задания синхронизации остановлены")
	case <-time.After(a.conf.GetStepTimeout()):
		log.Warn("Истекло ожидание завершения заданий синхронизации")
	}

	a.server.Shutdown()

	if a.feed != nil {
		a.feed.Close()
	}
	if a.feedRepo != nil {
		a.feedRepo.Close()
	}
	if a.geocodeStore != nil {
		if err := a.geocodeStore.Close(); err != nil {
			log.WithField("err", err).Warn("Ошибка закрытия хранилища кэша адресов")
		}
	}
}
