package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daniil11ru/tracksync/libs/envelope"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, e *emulator, path, body string) map[string]interface{} {
	rec := httptest.NewRecorder()
	e.router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	v, err := envelope.DecodeValue(rec.Body.Bytes())
	require.NoError(t, err)
	return v.(map[string]interface{})
}

func TestLoginIssuesToken(t *testing.T) {
	e := newEmulator("a+b/c", 2, 1)

	reply := post(t, e, "/login", "user=demo")
	assert.Equal(t, map[string]interface{}{"key2018": "a+b/c"}, reply["userInfo"])

	denied := post(t, e, "/login", "")
	assert.NotContains(t, denied, "userInfo")
}

func TestDevicesRequireToken(t *testing.T) {
	log.SetOutput(io.Discard)

	fixed := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return fixed }
	defer func() { now = original }()

	e := newEmulator("a+b/c", 3, 1)

	rejected := post(t, e, "/devices", "mds=wrong")
	assert.NotContains(t, rejected, "devices")

	reply := post(t, e, "/devices", "mds=a%2Bb%2Fc")
	devices := reply["devices"].([]interface{})
	require.Len(t, devices, 3)

	first := devices[0].(map[string]interface{})
	assert.Equal(t, "Vehicle 1", first["name"])
	assert.Equal(t, "2024-05-01", first["positionTime"].(string)[:10])

	last := devices[2].(map[string]interface{})
	assert.Equal(t, "2024-04-29 10:00:00", last["positionTime"])
}
