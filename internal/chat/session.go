package chat

import (
	"context"
	"io"
	"sync"

	"pubsubchat/internal/broker"
	"pubsubchat/internal/identity"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session runs one participant: bootstrap, then listener and sender side by
// side until ctx is cancelled, input ends, or the listener fails.
type Session struct {
	broker   broker.IBroker
	self     identity.Identity
	topic    string
	logger   *zap.Logger
	listener *Listener
	sender   *Sender
}

func NewSession(b broker.IBroker, self identity.Identity, topic string, in io.Reader, out io.Writer, opts ...Option) *Session {
	shared := &lockedWriter{w: out}
	return &Session{
		broker:   b,
		self:     self,
		topic:    topic,
		logger:   newOptions(opts).logger,
		listener: NewListener(b, self, topic, shared, opts...),
		sender:   NewSender(b, self, topic, in, shared, opts...),
	}
}

func (s *Session) Run(ctx context.Context) error {
	subscription := s.self.SubscriptionName()
	if err := Bootstrap(ctx, s.broker, s.topic, subscription, s.logger); err != nil {
		return err
	}
	s.logger.Info("Session running",
		zap.String("identity", s.self.Tag()),
		zap.String("topic", s.topic),
		zap.String("subscription", subscription),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.listener.Run(ctx)
	})
	g.Go(func() error {
		// End of input ends the whole session.
		defer cancel()
		return s.sender.Run(ctx)
	})

	return g.Wait()
}

// Listener and sender share the terminal.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
