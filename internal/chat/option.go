package chat

import (
	"time"

	"pubsubchat/internal/crypto"

	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	codec               crypto.IPayloadCodec
	logger              *zap.Logger
	decodeFailurePolicy DecodeFailurePolicy
	publishTimeout      time.Duration
	promptStyle         func(string) string
	project             string
}

func newOptions(opts []Option) options {
	o := options{
		codec:       crypto.Plain{},
		logger:      zap.NewNop(),
		promptStyle: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCodec seals outgoing and opens incoming payloads. Default is plain text.
func WithCodec(codec crypto.IPayloadCodec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithDecodeFailurePolicy(policy DecodeFailurePolicy) Option {
	return func(o *options) {
		o.decodeFailurePolicy = policy
	}
}

// WithPublishTimeout bounds each publish. Zero waits for the broker forever.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.publishTimeout = timeout
	}
}

// WithPromptStyle decorates the input prompt, e.g. with terminal colours.
func WithPromptStyle(style func(string) string) Option {
	return func(o *options) {
		o.promptStyle = style
	}
}

// WithProject qualifies the subscription shown in the listener banner as
// projects/<project>/subscriptions/<name>, the Pub/Sub resource path.
func WithProject(project string) Option {
	return func(o *options) {
		o.project = project
	}
}
