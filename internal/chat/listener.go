package chat

import (
	"context"
	"fmt"
	"io"
	"sync"

	"pubsubchat/internal"
	"pubsubchat/internal/broker"
	"pubsubchat/internal/crypto"
	"pubsubchat/internal/identity"
	"pubsubchat/internal/wire"

	"go.uber.org/zap"
)

// DecodeFailurePolicy decides what happens to a delivery that cannot be
// opened or decoded.
type DecodeFailurePolicy int

const (
	// DropOnDecodeFailure acks the message so it is never redelivered.
	DropOnDecodeFailure DecodeFailurePolicy = iota
	// RedeliverOnDecodeFailure nacks the message.
	RedeliverOnDecodeFailure
)

// Listener prints the peer's messages from this side's subscription.
type Listener struct {
	broker       broker.IBroker
	codec        crypto.IPayloadCodec
	self         identity.Identity
	topic        string
	subscription string
	banner       string
	policy       DecodeFailurePolicy
	logger       *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

func NewListener(b broker.IBroker, self identity.Identity, topic string, out io.Writer, opts ...Option) *Listener {
	o := newOptions(opts)
	banner := self.SubscriptionName()
	if o.project != "" {
		banner = fmt.Sprintf("projects/%s/subscriptions/%s", o.project, banner)
	}
	return &Listener{
		broker:       b,
		codec:        o.codec,
		self:         self,
		topic:        topic,
		subscription: self.SubscriptionName(),
		banner:       banner,
		policy:       o.decodeFailurePolicy,
		logger:       o.logger,
		out:          out,
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (l *Listener) Run(ctx context.Context) error {
	l.print("Listening for messages on %s...\n", l.banner)

	if err := l.broker.Subscribe(ctx, l.subscription, l.handle); err != nil {
		return fmt.Errorf("listen on %s: %w", l.subscription, err)
	}
	l.logger.Debug("Listener stopped", zap.String("subscription", l.subscription))
	return nil
}

func (l *Listener) handle(_ context.Context, msg *internal.Message) {
	payload, err := l.codec.Open(l.topic, msg.Data)
	if err != nil {
		l.reject(msg, err)
		return
	}

	chatMessage, err := wire.Decode(payload)
	if err != nil {
		l.reject(msg, err)
		return
	}

	if chatMessage.Sender != l.self.Tag() {
		l.print("Received from %s: %s\n", chatMessage.Sender, chatMessage.Text)
	}
	msg.Ack()
}

func (l *Listener) reject(msg *internal.Message, err error) {
	l.logger.Warn("Dropping undecodable message",
		zap.String("subscription", l.subscription),
		zap.String("id", msg.ID),
		zap.Bool("redeliver", l.policy == RedeliverOnDecodeFailure),
		zap.Error(err),
	)

	if l.policy == RedeliverOnDecodeFailure {
		msg.Nack()
		return
	}
	msg.Ack()
}

func (l *Listener) print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, format, args...)
}
