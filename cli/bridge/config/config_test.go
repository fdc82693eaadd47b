package config

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	file, err := os.CreateTemp("", "tracksync_config_*.yaml")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() { os.Remove(file.Name()) })
	return file.Name()
}

func withEnv(t *testing.T, env map[string]string) {
	original := getenv
	getenv = func(key string) string { return env[key] }
	t.Cleanup(func() { getenv = original })
}

func TestConfigLoad(t *testing.T) {
	log.SetOutput(io.Discard)
	withEnv(t, nil)

	path := writeConfig(t, `port: 8080
log_level: "DEBUG"
vendor:
  login_url: "http://vendor/login"
  login_data: "user=a&pass=b"
  devices_url: "http://vendor/devices"
  devices_base_data: "mds="
  time_zone: "Europe/Lisbon"
hass:
  url: "http://hass:8123/"
  token: "secret"
sync:
  poll_interval: 10
  publish_pace_ms: 500
feed:
  nats:
    url: "nats://localhost:4222"
    subject: "trackers"
`)

	conf, err := New(path)
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, ":8080", conf.GetListenAddress())
	assert.Equal(t, log.DebugLevel, conf.GetLogLevel())
	assert.Equal(t, "http://hass:8123", conf.Hass.URL)
	assert.Equal(t, "tracker", conf.Hass.EntityPrefix)
	assert.Equal(t, 10*time.Second, conf.GetPollInterval())
	assert.Equal(t, 500*time.Millisecond, conf.GetPublishPace())
	assert.Equal(t, 4*time.Hour, conf.GetZoneRefreshInterval())
	assert.Equal(t, 24*time.Hour, conf.GetFreshnessWindow())
	assert.Equal(t, map[string]map[string]string{
		"nats": {"url": "nats://localhost:4222", "subject": "trackers"},
	}, conf.Feed)

	loc, err := conf.GetVendorLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", loc.String())

	assert.False(t, conf.IsGeocodeEnabled())
	assert.Equal(t, map[string]string{"type": "file", "path": "geoCache.json"}, conf.Geocode.Store)
	assert.Equal(t, 100.0, conf.Geocode.ProximityMeters)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	log.SetOutput(io.Discard)
	withEnv(t, map[string]string{
		"LOGIN_URL":             "http://env/login",
		"LOGINDATA":             "user=env",
		"UPD_DEVICES_URL":       "http://env/devices",
		"UPD_DEVICES_BASE_DATA": "mds=",
		"HASS_URL":              "http://env-hass",
		"HASS_TOKEN":            "env-token",
		"LOCATIONIQ_TOKEN":      "pk.123",
	})

	path := writeConfig(t, `vendor:
  login_url: "http://file/login"
`)

	conf, err := New(path)
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, "http://env/login", conf.Vendor.LoginURL)
	assert.Equal(t, "env-token", conf.Hass.Token)
	assert.True(t, conf.IsGeocodeEnabled())
}

func TestEnvironmentOnly(t *testing.T) {
	log.SetOutput(io.Discard)
	withEnv(t, map[string]string{"HASS_TOKEN": "t"})

	conf, err := New("")
	require.NoError(t, err)
	assert.Equal(t, 3000, conf.Port)
	assert.Equal(t, 8*time.Second, conf.GetPollInterval())
	assert.Equal(t, time.Second, conf.GetPublishPace())
}

func TestValidateListsMissingValues(t *testing.T) {
	log.SetOutput(io.Discard)
	withEnv(t, map[string]string{"LOGIN_URL": "http://env/login"})

	conf, err := New("")
	require.NoError(t, err)

	err = conf.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
	assert.Contains(t, err.Error(), "LOGINDATA")
	assert.Contains(t, err.Error(), "HASS_TOKEN")
	assert.NotContains(t, err.Error(), "(LOGIN_URL)")
	assert.NotContains(t, err.Error(), "LOCATIONIQ_TOKEN")
}

func TestValidateRejectsUnknownTimeZone(t *testing.T) {
	log.SetOutput(io.Discard)
	withEnv(t, map[string]string{
		"LOGIN_URL":             "a",
		"LOGINDATA":             "b",
		"UPD_DEVICES_URL":       "c",
		"UPD_DEVICES_BASE_DATA": "d",
		"HASS_URL":              "e",
		"HASS_TOKEN":            "f",
	})

	path := writeConfig(t, `vendor:
  time_zone: "Mars/Olympus_Mons"
`)
	conf, err := New(path)
	require.NoError(t, err)
	assert.True(t, errors.Is(conf.Validate(), types.ErrConfig))
}

func TestNonExistentConfigFile(t *testing.T) {
	withEnv(t, nil)
	_, err := New("/tmp/non_existent_tracksync_config.yaml")
	assert.Error(t, err)
}

func TestLogLevels(t *testing.T) {
	tests := map[string]log.Level{
		"DEBUG":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"WARN":    log.WarnLevel,
		"ERROR":   log.ErrorLevel,
		"verbose": log.InfoLevel,
	}

	for level, expected := range tests {
		t.Run(level, func(t *testing.T) {
			s := Settings{LogLevel: level}
			assert.Equal(t, expected, s.GetLogLevel())
		})
	}
}
