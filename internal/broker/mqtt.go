package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"pubsubchat/internal"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var _ IBroker = &MQTT{}

// MQTT maps the broker operations onto an MQTT 3.1.1 connection.
//
// Topics exist implicitly in MQTT, so CreateTopic only records the name. A
// subscription is the persistent session of the client id: the connection is
// opened with a clean session off, so a QoS 1 subscription keeps queueing
// while this client is offline. Messages are acked by hand. MQTT has no
// nack, so Nack acks.
type MQTT struct {
	mqttClient paho.Client
	timeout    time.Duration

	mu            sync.Mutex
	topics        map[string]struct{}
	subscriptions map[string]string
}

const mqttQoS = 1

// Constructor
func NewMQTT(brokerURL string, clientID string, timeout time.Duration) (*MQTT, error) {

	options := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetCleanSession(false).
		SetAutoAckDisabled(true).
		SetAutoReconnect(true)

	mqttClient := paho.NewClient(options)

	connectToken := mqttClient.Connect()

	if !connectToken.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: connect to %s timed out", internal.ErrBrokerUnavailable, brokerURL)
	}
	if err := connectToken.Error(); err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", internal.ErrBrokerUnavailable, brokerURL, err)
	}

	return &MQTT{
		mqttClient:    mqttClient,
		timeout:       timeout,
		topics:        make(map[string]struct{}),
		subscriptions: make(map[string]string),
	}, nil
}

func (strct *MQTT) CreateTopic(_ context.Context, topic string) error {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	if _, exists := strct.topics[topic]; exists {
		return fmt.Errorf("topic %q: %w", topic, ErrAlreadyExists)
	}
	strct.topics[topic] = struct{}{}
	return nil
}

func (strct *MQTT) CreateSubscription(_ context.Context, subscription, topic string) error {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	if _, exists := strct.subscriptions[subscription]; exists {
		return fmt.Errorf("subscription %q: %w", subscription, ErrAlreadyExists)
	}
	strct.subscriptions[subscription] = topic
	return nil
}

func (strct *MQTT) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	token := strct.mqttClient.Publish(topic, mqttQoS, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := token.Error(); err != nil {
		return "", fmt.Errorf("%w: %w", internal.ErrBrokerUnavailable, err)
	}

	var id string
	if publishToken, ok := token.(*paho.PublishToken); ok {
		id = strconv.Itoa(int(publishToken.MessageID()))
	}
	return id, nil
}

func (strct *MQTT) Subscribe(ctx context.Context, subscription string, handler internal.Handler) error {
	strct.mu.Lock()
	topic, exists := strct.subscriptions[subscription]
	strct.mu.Unlock()
	if !exists {
		return fmt.Errorf("subscription %q: %w", subscription, ErrSubscriptionNotFound)
	}

	token := strct.mqttClient.Subscribe(topic, mqttQoS, func(_ paho.Client, msg paho.Message) {
		handler(ctx, mqttDelivery(msg))
	})

	if !token.WaitTimeout(strct.timeout) {
		return fmt.Errorf("%w: subscribe to %s timed out", internal.ErrBrokerUnavailable, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: subscribe to %s: %w", internal.ErrBrokerUnavailable, topic, err)
	}

	<-ctx.Done()
	return nil
}

// mqttDelivery wraps a paho message. MQTT cannot ask for redelivery, and an
// unacked QoS 1 message holds a slot of the in-flight window until the session
// resumes, so Nack acks too.
func mqttDelivery(msg paho.Message) *internal.Message {
	return internal.NewMessage(
		strconv.Itoa(int(msg.MessageID())),
		msg.Topic(),
		msg.Payload(),
		msg.Ack,
		msg.Ack,
	)
}

func (strct *MQTT) Close() error {
	strct.mqttClient.Disconnect(250)
	return nil
}
