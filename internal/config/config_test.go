package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	req.NoError(err)

	req.Equal(BrokerPubSub, cfg.Broker)
	req.Equal("xxx-12345", cfg.ProjectID)
	req.Equal("user1-user2", cfg.TopicID)
	req.Equal("tcp://localhost:1883", cfg.MQTTBrokerURL)
	req.Equal(10*time.Second, cfg.MQTTConnectTimeout)
	req.Zero(cfg.PublishTimeout)
	req.Equal(DecodeFailureAck, cfg.DecodeFailurePolicy)
	req.Empty(cfg.SecretFile)
	req.Equal("warn", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_BROKER", "mqtt")
	t.Setenv("CHAT_MQTT_BROKER_URL", "tcp://broker:1883")
	t.Setenv("CHAT_TOPIC_ID", "room")
	t.Setenv("CHAT_PUBLISH_TIMEOUT", "3s")
	t.Setenv("CHAT_DECODE_FAILURE_POLICY", "nack")

	cfg, err := Load()
	req.NoError(err)

	req.Equal(BrokerMQTT, cfg.Broker)
	req.Equal("tcp://broker:1883", cfg.MQTTBrokerURL)
	req.Equal("room", cfg.TopicID)
	req.Equal(3*time.Second, cfg.PublishTimeout)
	req.Equal(DecodeFailureNack, cfg.DecodeFailurePolicy)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	t.Chdir(t.TempDir())

	for name, value := range map[string]string{
		"CHAT_BROKER":                "kafka",
		"CHAT_DECODE_FAILURE_POLICY": "retry",
		"CHAT_LOG_LEVEL":             "verbose",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
