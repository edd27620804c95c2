package broker

import (
	"context"
	"fmt"

	"pubsubchat/internal/config"
)

// New opens the broker selected by cfg.Broker. clientID names the MQTT
// session and is ignored by the other backends. Each memory broker is private
// to its caller.
func New(ctx context.Context, cfg config.Config, clientID string) (IBroker, error) {
	switch cfg.Broker {
	case config.BrokerPubSub:
		return NewPubSub(ctx, cfg.ProjectID, cfg.CredentialsFile)
	case config.BrokerMQTT:
		return NewMQTT(cfg.MQTTBrokerURL, clientID, cfg.MQTTConnectTimeout)
	case config.BrokerMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBroker, cfg.Broker)
	}
}
