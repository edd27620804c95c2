package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pubsubchat/internal"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound error
		want     error
	}{
		{"already exists", status.Error(codes.AlreadyExists, "Resource already exists"), nil, ErrAlreadyExists},
		{"missing topic", status.Error(codes.NotFound, "Topic not found"), ErrTopicNotFound, ErrTopicNotFound},
		{"missing subscription", status.Error(codes.NotFound, "Subscription does not exist"), ErrSubscriptionNotFound, ErrSubscriptionNotFound},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), nil, internal.ErrBrokerUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline exceeded"), nil, internal.ErrBrokerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.notFound)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, status.Code(tt.err), status.Code(got))
		})
	}
}

func TestClassify_LeavesOtherErrorsAlone(t *testing.T) {
	denied := status.Error(codes.PermissionDenied, "User not authorized")
	assert.Equal(t, denied, classify(denied, ErrTopicNotFound))

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain, nil))

	notFound := status.Error(codes.NotFound, "gone")
	assert.Equal(t, notFound, classify(notFound, nil))
}

func newTestPubSub(t *testing.T) *PubSub {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ps, err := NewPubSub(context.Background(), "xxx-12345", "", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

func TestPubSub_CreateTwiceReportsAlreadyExists(t *testing.T) {
	req := require.New(t)
	ps := newTestPubSub(t)
	ctx := context.Background()

	req.NoError(ps.CreateTopic(ctx, testTopic))
	req.ErrorIs(ps.CreateTopic(ctx, testTopic), ErrAlreadyExists)

	req.NoError(ps.CreateSubscription(ctx, subUser1, testTopic))
	req.ErrorIs(ps.CreateSubscription(ctx, subUser1, testTopic), ErrAlreadyExists)
}

func TestPubSub_SubscriptionOnMissingTopic(t *testing.T) {
	ps := newTestPubSub(t)

	err := ps.CreateSubscription(context.Background(), subUser1, "missing")
	require.ErrorIs(t, err, ErrTopicNotFound)
}

func TestPubSub_PublishThenReceive(t *testing.T) {
	req := require.New(t)
	ps := newTestPubSub(t)
	ctx := context.Background()

	req.NoError(ps.CreateTopic(ctx, testTopic))
	req.NoError(ps.CreateSubscription(ctx, subUser2, testTopic))

	id, err := ps.Publish(ctx, testTopic, []byte("user1: hi"))
	req.NoError(err)
	req.NotEmpty(id)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []delivery
	err = ps.Subscribe(recvCtx, subUser2, func(_ context.Context, msg *internal.Message) {
		msg.Ack()
		mu.Lock()
		got = append(got, delivery{ID: msg.ID, Topic: msg.Topic, Data: msg.Data})
		mu.Unlock()
		cancel()
	})
	req.NoError(err, "Subscribe returns nil once its context is cancelled")

	mu.Lock()
	defer mu.Unlock()
	req.NotEmpty(got)
	req.Equal(id, got[0].ID)
	req.Equal([]byte("user1: hi"), got[0].Data)
}

func TestPubSub_SubscribeReturnsOnCancel(t *testing.T) {
	req := require.New(t)
	ps := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())

	req.NoError(ps.CreateTopic(ctx, testTopic))
	req.NoError(ps.CreateSubscription(ctx, subUser1, testTopic))

	done := make(chan error, 1)
	go func() {
		done <- ps.Subscribe(ctx, subUser1, func(context.Context, *internal.Message) {})
	}()

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestPubSub_SubscribeUnknownSubscription(t *testing.T) {
	ps := newTestPubSub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ps.Subscribe(ctx, "missing", func(context.Context, *internal.Message) {})
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}
