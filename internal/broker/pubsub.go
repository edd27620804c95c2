package broker

import (
	"context"
	"fmt"
	"sync"

	"pubsubchat/internal"

	"cloud.google.com/go/pubsub"
	"github.com/samber/lo"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ IBroker = &PubSub{}

// PubSub talks to Google Cloud Pub/Sub, or to the emulator when
// PUBSUB_EMULATOR_HOST is set.
type PubSub struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSub opens a client for projectID. Extra options, such as a gRPC
// connection to a fake server, are passed through to the client.
func NewPubSub(ctx context.Context, projectID, credentialsFile string, opts ...option.ClientOption) (*PubSub, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for project %s: %w", projectID, classify(err, nil))
	}

	return &PubSub{
		client: client,
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

func (strct *PubSub) CreateTopic(ctx context.Context, topic string) error {
	if _, err := strct.client.CreateTopic(ctx, topic); err != nil {
		return fmt.Errorf("create topic %q: %w", topic, classify(err, nil))
	}
	return nil
}

func (strct *PubSub) CreateSubscription(ctx context.Context, subscription, topic string) error {
	_, err := strct.client.CreateSubscription(ctx, subscription, pubsub.SubscriptionConfig{
		Topic: strct.client.Topic(topic),
	})
	if err != nil {
		return fmt.Errorf("create subscription %q: %w", subscription, classify(err, ErrTopicNotFound))
	}
	return nil
}

func (strct *PubSub) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	result := strct.topic(topic).Publish(ctx, &pubsub.Message{Data: payload})

	id, err := result.Get(ctx)
	if err != nil {
		return "", classify(err, ErrTopicNotFound)
	}
	return id, nil
}

// Subscribe runs a streaming pull. The client library may call handler from
// several goroutines at once.
func (strct *PubSub) Subscribe(ctx context.Context, subscription string, handler internal.Handler) error {
	sub := strct.client.Subscription(subscription)
	sub.ReceiveSettings.NumGoroutines = 1

	err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		handler(ctx, internal.NewMessage(msg.ID, subscription, msg.Data, msg.Ack, msg.Nack))
	})
	if err != nil {
		return fmt.Errorf("receive on %q: %w", subscription, classify(err, ErrSubscriptionNotFound))
	}
	return nil
}

func (strct *PubSub) Close() error {
	strct.mu.Lock()
	lo.ForEach(lo.Values(strct.topics), func(t *pubsub.Topic, _ int) {
		t.Stop()
	})
	strct.topics = make(map[string]*pubsub.Topic)
	strct.mu.Unlock()

	return strct.client.Close()
}

// topic keeps one publisher per topic so its batching goroutines are reused.
func (strct *PubSub) topic(id string) *pubsub.Topic {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	t, ok := strct.topics[id]
	if !ok {
		t = strct.client.Topic(id)
		strct.topics[id] = t
	}
	return t
}

// classify tags gRPC status errors with the broker sentinels. notFound is the
// sentinel for a NotFound status, nil to leave it untagged.
func classify(err error, notFound error) error {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case codes.NotFound:
		if notFound != nil {
			return fmt.Errorf("%w: %w", notFound, err)
		}
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", internal.ErrBrokerUnavailable, err)
	}
	return err
}
