package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BrokerPubSub = "pubsub"
	BrokerMQTT   = "mqtt"
	// BrokerMemory is a loopback inside one process: two chat processes never
	// see each other. Meant for local trials and tests.
	BrokerMemory = "memory"

	DecodeFailureAck  = "ack"
	DecodeFailureNack = "nack"
)

type Config struct {
	Broker              string        `env:"CHAT_BROKER,default=pubsub" validate:"oneof=pubsub mqtt memory"`
	ProjectID           string        `env:"CHAT_PROJECT_ID,default=xxx-12345" validate:"required"`
	TopicID             string        `env:"CHAT_TOPIC_ID,default=user1-user2" validate:"required"`
	CredentialsFile     string        `env:"CHAT_CREDENTIALS_FILE"`
	MQTTBrokerURL       string        `env:"CHAT_MQTT_BROKER_URL,default=tcp://localhost:1883" validate:"required_if=Broker mqtt"`
	MQTTConnectTimeout  time.Duration `env:"CHAT_MQTT_CONNECT_TIMEOUT,default=10s" validate:"gt=0"`
	PublishTimeout      time.Duration `env:"CHAT_PUBLISH_TIMEOUT,default=0s" validate:"gte=0"`
	DecodeFailurePolicy string        `env:"CHAT_DECODE_FAILURE_POLICY,default=ack" validate:"oneof=ack nack"`
	SecretFile          string        `env:"CHAT_SECRET_FILE"`
	LogLevel            string        `env:"CHAT_LOG_LEVEL,default=warn" validate:"oneof=debug info warn error"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
