//go:generate go run go.uber.org/mock/mockgen -source=i_broker.go -destination=../../mocks/mock_broker.go -package=mocks
package broker

import (
	"context"
	"errors"

	"pubsubchat/internal"
)

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnsupportedBroker    = errors.New("unsupported broker")
)

type IBroker interface {
	// CreateTopic fails with ErrAlreadyExists if the topic is already there.
	CreateTopic(ctx context.Context, topic string) error

	// CreateSubscription binds a named subscription to topic.
	// Fails with ErrAlreadyExists if the subscription is already there.
	CreateSubscription(ctx context.Context, subscription, topic string) error

	// Publish blocks until the broker confirms the message and returns its id.
	Publish(ctx context.Context, topic string, payload []byte) (string, error)

	// Subscribe delivers messages to handler until ctx is cancelled,
	// then returns nil.
	Subscribe(ctx context.Context, subscription string, handler internal.Handler) error

	Close() error
}
