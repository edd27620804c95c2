package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"pubsubchat/internal"

	"github.com/stretchr/testify/require"
)

const (
	testTopic = "user1-user2"
	subUser1  = "user2-subscription"
	subUser2  = "user1-subscription"
)

func newTopology(t *testing.T) *Memory {
	t.Helper()
	req := require.New(t)

	m := NewMemory()
	ctx := context.Background()
	req.NoError(m.CreateTopic(ctx, testTopic))
	req.NoError(m.CreateSubscription(ctx, subUser1, testTopic))
	req.NoError(m.CreateSubscription(ctx, subUser2, testTopic))
	return m
}

func TestMemory_CreateTwiceReportsAlreadyExists(t *testing.T) {
	req := require.New(t)
	m := newTopology(t)
	ctx := context.Background()

	req.ErrorIs(m.CreateTopic(ctx, testTopic), ErrAlreadyExists)
	req.ErrorIs(m.CreateSubscription(ctx, subUser1, testTopic), ErrAlreadyExists)
}

func TestMemory_UnknownNames(t *testing.T) {
	req := require.New(t)
	m := NewMemory()
	ctx := context.Background()

	req.ErrorIs(m.CreateSubscription(ctx, subUser1, "missing"), ErrTopicNotFound)

	_, err := m.Publish(ctx, "missing", []byte("x"))
	req.ErrorIs(err, ErrTopicNotFound)

	err = m.Subscribe(ctx, "missing", func(context.Context, *internal.Message) {})
	req.ErrorIs(err, ErrSubscriptionNotFound)
}

func TestMemory_EverySubscriptionGetsACopy(t *testing.T) {
	req := require.New(t)
	m := newTopology(t)

	id, err := m.Publish(context.Background(), testTopic, []byte("user1: hello"))
	req.NoError(err)
	req.NotEmpty(id)

	req.Equal(1, m.Pending(subUser1))
	req.Equal(1, m.Pending(subUser2))

	got := receiveOne(t, m, subUser2, func(msg *internal.Message) { msg.Ack() })
	req.Equal(id, got.ID)
	req.Equal(testTopic, got.Topic)
	req.Equal([]byte("user1: hello"), got.Data)

	req.Equal(0, m.Pending(subUser2))
	req.Equal(1, m.Pending(subUser1))
}

func TestMemory_NackRequeues(t *testing.T) {
	req := require.New(t)
	m := newTopology(t)

	_, err := m.Publish(context.Background(), testTopic, []byte("user1: again"))
	req.NoError(err)

	first := receiveOne(t, m, subUser2, func(msg *internal.Message) { msg.Nack() })
	req.Equal(1, m.Pending(subUser2))

	second := receiveOne(t, m, subUser2, func(msg *internal.Message) { msg.Ack() })
	req.Equal(first.ID, second.ID)
	req.Equal(0, m.Pending(subUser2))
}

func TestMemory_SettleOnlyOnce(t *testing.T) {
	req := require.New(t)
	m := newTopology(t)

	_, err := m.Publish(context.Background(), testTopic, []byte("user1: once"))
	req.NoError(err)

	receiveOne(t, m, subUser2, func(msg *internal.Message) {
		msg.Ack()
		msg.Nack()
		msg.Nack()
	})
	req.Equal(0, m.Pending(subUser2))
}

func TestMemory_SubscribeReturnsOnCancel(t *testing.T) {
	m := newTopology(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Subscribe(ctx, subUser1, func(context.Context, *internal.Message) {})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestMemory_ConcurrentPublish(t *testing.T) {
	m := newTopology(t)
	const n = 200

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := m.Publish(context.Background(), testTopic, []byte("user2: hi")); err != nil {
				t.Errorf("Publish() error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, n, m.Pending(subUser1))
	require.Equal(t, n, m.Pending(subUser2))
}

type delivery struct {
	ID    string
	Topic string
	Data  []byte
}

// receiveOne subscribes until the first delivery, settles it with settle,
// and returns a copy of it.
func receiveOne(t *testing.T, m *Memory, subscription string, settle func(*internal.Message)) delivery {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got delivery
	err := m.Subscribe(ctx, subscription, func(_ context.Context, msg *internal.Message) {
		got = delivery{ID: msg.ID, Topic: msg.Topic, Data: msg.Data}
		settle(msg)
		cancel()
	})
	require.NoError(t, err)
	require.NotEmpty(t, got.ID, "no message delivered on %s", subscription)
	return got
}
