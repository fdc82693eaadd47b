package config

/*
Описание конфигурационного файла.

Значения из файла перекрываются переменными окружения:
LOGIN_URL, LOGINDATA, UPD_DEVICES_URL, UPD_DEVICES_BASE_DATA,
HASS_URL, HASS_TOKEN, LOCATIONIQ_TOKEN, LOG_LEVEL.
*/

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

const (
	defaultPort                = 3000
	defaultPollInterval        = 8
	defaultZoneRefreshInterval = 4 * 60 * 60
	defaultPublishPace         = 1000
	defaultStepTimeout         = 120
	defaultFreshnessWindow     = 24
	defaultHTTPTimeout         = 30
	defaultEntityPrefix        = "tracker"
	defaultGeocodeURL          = "https://us1.locationiq.com/v1/reverse"
	defaultGeocodeProximity    = 100
	defaultGeocodeStore        = "file"
	defaultGeocodeFile         = "geoCache.json"
	defaultFeedBuffer          = 256
	defaultFeedWorkers         = 2
)

type Vendor struct {
	LoginURL        string `yaml:"login_url"`
	LoginData       string `yaml:"login_data"`
	DevicesURL      string `yaml:"devices_url"`
	DevicesBaseData string `yaml:"devices_base_data"`
	TimeZone        string `yaml:"time_zone"`
	HTTPTimeout     int    `yaml:"http_timeout"`
}

type Hass struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	EntityPrefix string `yaml:"entity_prefix"`
	HTTPTimeout  int    `yaml:"http_timeout"`
}

type Sync struct {
	PollInterval        int `yaml:"poll_interval"`
	ZoneRefreshInterval int `yaml:"zone_refresh_interval"`
	PublishPace         int `yaml:"publish_pace_ms"`
	StepTimeout         int `yaml:"step_timeout"`
	FreshnessWindow     int `yaml:"freshness_window_hours"`
}

type Geocode struct {
	APIKey          string            `yaml:"api_key"`
	URL             string            `yaml:"url"`
	ProximityMeters float64           `yaml:"proximity_meters"`
	MaxEntries      int               `yaml:"max_entries"`
	Store           map[string]string `yaml:"store"`
}

type Settings struct {
	Port          int    `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	Vendor  Vendor  `yaml:"vendor"`
	Hass    Hass    `yaml:"hass"`
	Sync    Sync    `yaml:"sync"`
	Geocode Geocode `yaml:"geocode"`

	Feed        map[string]map[string]string `yaml:"feed"`
	FeedBuffer  int                          `yaml:"feed_buffer"`
	FeedWorkers int                          `yaml:"feed_workers"`
}

var getenv = os.Getenv

// New читает конфиг из файла (если путь задан), применяет переменные окружения
// и значения по умолчанию. Обязательные значения проверяются в Validate.
func New(confPath string) (Settings, error) {
	c := Settings{}
	if confPath != "" {
		data, err := os.ReadFile(confPath)
		if err != nil {
			return c, err
		}
		if err = yaml.Unmarshal(data, &c); err != nil {
			return c, err
		}
	}

	c.applyEnv()
	c.applyDefaults()

	return c, nil
}

func (s *Settings) applyEnv() {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	override(&s.Vendor.LoginURL, "LOGIN_URL")
	override(&s.Vendor.LoginData, "LOGINDATA")
	override(&s.Vendor.DevicesURL, "UPD_DEVICES_URL")
	override(&s.Vendor.DevicesBaseData, "UPD_DEVICES_BASE_DATA")
	override(&s.Hass.URL, "HASS_URL")
	override(&s.Hass.Token, "HASS_TOKEN")
	override(&s.Geocode.APIKey, "LOCATIONIQ_TOKEN")
	override(&s.LogLevel, "LOG_LEVEL")
}

func (s *Settings) applyDefaults() {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.Vendor.HTTPTimeout <= 0 {
		s.Vendor.HTTPTimeout = defaultHTTPTimeout
	}
	if s.Hass.HTTPTimeout <= 0 {
		s.Hass.HTTPTimeout = defaultHTTPTimeout
	}
	if s.Hass.EntityPrefix == "" {
		s.Hass.EntityPrefix = defaultEntityPrefix
	}
	s.Hass.URL = strings.TrimRight(s.Hass.URL, "/")

	if s.Sync.PollInterval <= 0 {
		s.Sync.PollInterval = defaultPollInterval
	}
	if s.Sync.ZoneRefreshInterval <= 0 {
		s.Sync.ZoneRefreshInterval = defaultZoneRefreshInterval
	}
	if s.Sync.PublishPace < 0 {
		log.Errorf("Некорректная пауза публикации (%d мс). Используется значение по умолчанию %d мс.", s.Sync.PublishPace, defaultPublishPace)
		s.Sync.PublishPace = defaultPublishPace
	} else if s.Sync.PublishPace == 0 {
		s.Sync.PublishPace = defaultPublishPace
	}
	if s.Sync.StepTimeout <= 0 {
		s.Sync.StepTimeout = defaultStepTimeout
	}
	if s.Sync.FreshnessWindow <= 0 {
		s.Sync.FreshnessWindow = defaultFreshnessWindow
	}

	if s.Geocode.URL == "" {
		s.Geocode.URL = defaultGeocodeURL
	}
	if s.Geocode.ProximityMeters <= 0 {
		s.Geocode.ProximityMeters = defaultGeocodeProximity
	}
	if s.Geocode.MaxEntries < 0 {
		s.Geocode.MaxEntries = 0
	}
	if s.Geocode.Store == nil {
		s.Geocode.Store = map[string]string{}
	}
	if s.Geocode.Store["type"] == "" {
		s.Geocode.Store["type"] = defaultGeocodeStore
	}
	if s.Geocode.Store["type"] == "file" && s.Geocode.Store["path"] == "" {
		s.Geocode.Store["path"] = defaultGeocodeFile
	}

	if s.FeedBuffer <= 0 {
		s.FeedBuffer = defaultFeedBuffer
	}
	if s.FeedWorkers <= 0 {
		s.FeedWorkers = defaultFeedWorkers
	}
}

// Validate перечисляет все отсутствующие обязательные параметры.
func (s *Settings) Validate() error {
	var missing []string

	required := []struct {
		value string
		name  string
	}{
		{s.Vendor.LoginURL, "vendor.login_url (LOGIN_URL)"},
		{s.Vendor.LoginData, "vendor.login_data (LOGINDATA)"},
		{s.Vendor.DevicesURL, "vendor.devices_url (UPD_DEVICES_URL)"},
		{s.Vendor.DevicesBaseData, "vendor.devices_base_data (UPD_DEVICES_BASE_DATA)"},
		{s.Hass.URL, "hass.url (HASS_URL)"},
		{s.Hass.Token, "hass.token (HASS_TOKEN)"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: не заданы обязательные параметры: %s", types.ErrConfig, strings.Join(missing, ", "))
	}

	if _, err := s.GetVendorLocation(); err != nil {
		return fmt.Errorf("%w: некорректная временная зона вендора %q: %v", types.ErrConfig, s.Vendor.TimeZone, err)
	}

	return nil
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func (s *Settings) GetListenAddress() string {
	return fmt.Sprintf(":%d", s.Port)
}

func (s *Settings) GetVendorLocation() (*time.Location, error) {
	if s.Vendor.TimeZone == "" || s.Vendor.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Vendor.TimeZone)
}

func (s *Settings) IsGeocodeEnabled() bool {
	return s.Geocode.APIKey != ""
}

func (s *Settings) GetVendorHTTPTimeout() time.Duration {
	return time.Duration(s.Vendor.HTTPTimeout) * time.Second
}

func (s *Settings) GetHassHTTPTimeout() time.Duration {
	return time.Duration(s.Hass.HTTPTimeout) * time.Second
}

func (s *Settings) GetPollInterval() time.Duration {
	return time.Duration(s.Sync.PollInterval) * time.Second
}

func (s *Settings) GetZoneRefreshInterval() time.Duration {
	return time.Duration(s.Sync.ZoneRefreshInterval) * time.Second
}

func (s *Settings) GetPublishPace() time.Duration {
	return time.Duration(s.Sync.PublishPace) * time.Millisecond
}

func (s *Settings) GetStepTimeout() time.Duration {
	return time.Duration(s.Sync.StepTimeout) * time.Second
}

func (s *Settings) GetFreshnessWindow() time.Duration {
	return time.Duration(s.Sync.FreshnessWindow) * time.Hour
}
