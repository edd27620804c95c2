package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pubsubchat/internal"
	"pubsubchat/internal/broker"
	"pubsubchat/internal/crypto"
	"pubsubchat/internal/identity"
	"pubsubchat/internal/wire"

	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

// Sender publishes each line typed by the user, one at a time.
type Sender struct {
	broker         broker.IBroker
	codec          crypto.IPayloadCodec
	self           identity.Identity
	topic          string
	publishTimeout time.Duration
	promptStyle    func(string) string
	logger         *zap.Logger

	in  io.Reader
	out io.Writer
}

func NewSender(b broker.IBroker, self identity.Identity, topic string, in io.Reader, out io.Writer, opts ...Option) *Sender {
	o := newOptions(opts)
	return &Sender{
		broker:         b,
		codec:          o.codec,
		self:           self,
		topic:          topic,
		publishTimeout: o.publishTimeout,
		promptStyle:    o.promptStyle,
		logger:         o.logger,
		in:             in,
		out:            out,
	}
}

// Run prompts, reads and publishes until ctx is cancelled or input ends.
// A failed publish is reported to the user and the loop goes on.
func (s *Sender) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	// The terminal read cannot be interrupted, so it lives on its own goroutine.
	go s.readLines(ctx, lines, readErr)

	for {
		_, _ = fmt.Fprint(s.out, s.promptStyle(fmt.Sprintf("You (user %s): ", s.self)))

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				s.logger.Debug("Input closed")
				return nil
			}
			if err := s.Send(ctx, line); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn("Publish failed", zap.String("topic", s.topic), zap.Error(err))
				_, _ = fmt.Fprintf(s.out, "publish failed: %v\n", err)
			}
		}
	}
}

// Send publishes one line tagged with this side's identity and waits for the
// broker to confirm it.
func (s *Sender) Send(ctx context.Context, text string) error {
	payload, err := s.codec.Seal(s.topic, wire.Encode(s.self.Tag(), text))
	if err != nil {
		return fmt.Errorf("%w: %w", internal.ErrPublish, err)
	}

	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}

	id, err := s.broker.Publish(ctx, s.topic, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", internal.ErrBrokerUnavailable, err)
		}
		return fmt.Errorf("%w: %w", internal.ErrPublish, err)
	}

	s.logger.Debug("Published", zap.String("topic", s.topic), zap.String("id", id))
	return nil
}

func (s *Sender) readLines(ctx context.Context, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
	close(lines)
}
