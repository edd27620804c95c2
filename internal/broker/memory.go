package broker

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"pubsubchat/internal"

	"github.com/google/uuid"
)

var _ IBroker = &Memory{}

// Memory is an in-process broker. Every subscription bound to a topic gets its
// own copy of each published message. A nacked message goes back to the end
// of its subscription queue.
type Memory struct {
	mu            sync.Mutex
	topics        map[string]struct{}
	subscriptions map[string]*memorySubscription
}

type memorySubscription struct {
	topic string

	mu      sync.Mutex
	pending []memoryMessage
	notify  chan struct{}
}

type memoryMessage struct {
	id   string
	data []byte
}

func NewMemory() *Memory {
	return &Memory{
		topics:        make(map[string]struct{}),
		subscriptions: make(map[string]*memorySubscription),
	}
}

func (strct *Memory) CreateTopic(_ context.Context, topic string) error {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	if _, exists := strct.topics[topic]; exists {
		return fmt.Errorf("topic %q: %w", topic, ErrAlreadyExists)
	}
	strct.topics[topic] = struct{}{}
	return nil
}

func (strct *Memory) CreateSubscription(_ context.Context, subscription, topic string) error {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	if _, exists := strct.subscriptions[subscription]; exists {
		return fmt.Errorf("subscription %q: %w", subscription, ErrAlreadyExists)
	}
	if _, exists := strct.topics[topic]; !exists {
		return fmt.Errorf("topic %q: %w", topic, ErrTopicNotFound)
	}
	strct.subscriptions[subscription] = &memorySubscription{
		topic:  topic,
		notify: make(chan struct{}, 1),
	}
	return nil
}

func (strct *Memory) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	strct.mu.Lock()
	defer strct.mu.Unlock()

	if _, exists := strct.topics[topic]; !exists {
		return "", fmt.Errorf("topic %q: %w", topic, ErrTopicNotFound)
	}

	msg := memoryMessage{id: uuid.NewString(), data: bytes.Clone(payload)}
	for _, sub := range strct.subscriptions {
		if sub.topic == topic {
			sub.push(msg)
		}
	}
	return msg.id, nil
}

func (strct *Memory) Subscribe(ctx context.Context, subscription string, handler internal.Handler) error {
	strct.mu.Lock()
	sub, exists := strct.subscriptions[subscription]
	strct.mu.Unlock()
	if !exists {
		return fmt.Errorf("subscription %q: %w", subscription, ErrSubscriptionNotFound)
	}

	for {
		msg, ok := sub.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-sub.notify:
				continue
			}
		}

		if ctx.Err() != nil {
			sub.push(msg)
			return nil
		}

		handler(ctx, internal.NewMessage(msg.id, sub.topic, bytes.Clone(msg.data),
			func() {},
			func() { sub.push(msg) },
		))
	}
}

// Pending reports how many messages wait on a subscription.
func (strct *Memory) Pending(subscription string) int {
	strct.mu.Lock()
	sub, exists := strct.subscriptions[subscription]
	strct.mu.Unlock()
	if !exists {
		return 0
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.pending)
}

func (strct *Memory) Close() error {
	return nil
}

func (s *memorySubscription) push(msg memoryMessage) {
	s.mu.Lock()
	s.pending = append(s.pending, msg)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *memorySubscription) pop() (memoryMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return memoryMessage{}, false
	}
	msg := s.pending[0]
	s.pending = s.pending[1:]
	return msg, true
}
