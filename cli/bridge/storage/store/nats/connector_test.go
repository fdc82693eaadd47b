package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testData struct{}

func (testData) ToBytes() ([]byte, error) {
	return []byte(`{"id":"42"}`), nil
}

func TestNatsConnector(t *testing.T) {
	srv := test.RunRandClientPortServer()
	defer srv.Shutdown()

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	messages := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("tracksync.devices", messages)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	c := &Connector{}
	require.NoError(t, c.Init(map[string]string{"servers": srv.ClientURL(), "subject": "tracksync.devices"}))
	defer c.Close()

	require.NoError(t, c.Save(testData{}))

	select {
	case msg := <-messages:
		assert.Equal(t, `{"id":"42"}`, string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestNatsConnectorRequiresSubject(t *testing.T) {
	c := &Connector{}
	assert.Error(t, c.Init(map[string]string{"servers": "nats://localhost:4222"}))
}
