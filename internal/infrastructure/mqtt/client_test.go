package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "campus-core-test",
		},
		QoS:         1,
		TopicPrefix: "campus-test",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// connectOrSkip needs a broker on 127.0.0.1:1883.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	c, err := Connect(testConfig())
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // test cleanup
	return c
}

func TestTopics(t *testing.T) {
	topics := NewTopics("/campus/")

	assert.Equal(t, "campus", topics.Prefix())
	assert.Equal(t, "campus/system/status", topics.SystemStatus())
	assert.Equal(t, "campus/auth/events/login_failed", topics.AuthEvent("login_failed"))
	assert.Equal(t, "campus/auth/events/+", topics.AllAuthEvents())

	assert.Equal(t, DefaultTopicPrefix, NewTopics("").Prefix())
	assert.Equal(t, DefaultTopicPrefix, Topics{}.Prefix())
}

func TestValidatePublishTopic(t *testing.T) {
	assert.NoError(t, validatePublishTopic("campus/auth/events/login"))
	assert.ErrorIs(t, validatePublishTopic(""), ErrInvalidTopic)
	assert.ErrorIs(t, validatePublishTopic("campus/auth/events/+"), ErrInvalidTopic)
	assert.ErrorIs(t, validatePublishTopic("campus/#"), ErrInvalidTopic)
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "svc", Password: "pw"}

	opts := buildClientOptions(cfg)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://127.0.0.1:1883", opts.Servers[0].String())
	assert.Equal(t, "campus-core-test", opts.ClientID)
	assert.Equal(t, "svc", opts.Username)
	assert.True(t, opts.AutoReconnect)
	assert.True(t, opts.CleanSession)
	assert.Nil(t, opts.TLSConfig)

	cfg.Broker.TLS = true
	tlsOpts := buildClientOptions(cfg)
	assert.True(t, strings.HasPrefix(tlsOpts.Servers[0].String(), "ssl://"))
	require.NotNil(t, tlsOpts.TLSConfig)
	assert.Equal(t, uint16(tlsMinVersion), tlsOpts.TLSConfig.MinVersion)
}

func TestStatusPayload(t *testing.T) {
	at := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	var msg statusMessage
	require.NoError(t, json.Unmarshal(statusPayload("offline", "cid", "graceful_shutdown", at), &msg))
	assert.Equal(t, statusMessage{
		Status:    "offline",
		ClientID:  "cid",
		Reason:    "graceful_shutdown",
		Timestamp: "2026-03-02T09:00:00Z",
	}, msg)
}

func TestPublish_ValidatesBeforeConnecting(t *testing.T) {
	c := newClient(testConfig())

	assert.ErrorIs(t, c.Publish("", []byte("x"), 1, false), ErrInvalidTopic)
	assert.ErrorIs(t, c.Publish("campus/a", []byte("x"), 3, false), ErrInvalidQoS)

	big := make([]byte, maxPayloadSize+1)
	assert.ErrorIs(t, c.Publish("campus/a", big, 1, false), ErrPublishFailed)

	assert.ErrorIs(t, c.Publish("campus/a", []byte("x"), 1, false), ErrNotConnected)
	assert.ErrorIs(t, c.PublishEvent("campus/a", []byte("x")), ErrNotConnected)
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := newClient(testConfig())

	assert.ErrorIs(t, c.HealthCheck(t.Context()), ErrNotConnected)
	assert.False(t, c.IsConnected())
}

func TestConnect_InvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
}

func TestConnect_PublishAndClose(t *testing.T) {
	c := connectOrSkip(t)

	assert.True(t, c.IsConnected())
	assert.NoError(t, c.HealthCheck(t.Context()))
	assert.NoError(t, c.PublishEvent(c.Topics().AuthEvent("login"), []byte(`{"kind":"login"}`)))

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestCallbacks(t *testing.T) {
	c := newClient(testConfig())

	connected := make(chan struct{}, 1)
	lost := make(chan error, 1)
	c.SetOnConnect(func() { connected <- struct{}{} })
	c.SetOnDisconnect(func(err error) { lost <- err })

	c.handleDisconnect(errors.New("network down"))
	assert.EqualError(t, <-lost, "network down")
	assert.False(t, c.IsConnected())
}
