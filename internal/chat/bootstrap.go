package chat

import (
	"context"
	"errors"
	"fmt"

	"pubsubchat/internal"
	"pubsubchat/internal/broker"

	"go.uber.org/zap"
)

// Bootstrap makes sure the shared topic and this side's subscription exist.
// "Already exists" counts as success; any other broker error aborts startup.
func Bootstrap(ctx context.Context, b broker.IBroker, topic, subscription string, logger *zap.Logger) error {
	if err := b.CreateTopic(ctx, topic); err != nil {
		if !errors.Is(err, broker.ErrAlreadyExists) {
			return fmt.Errorf("%w: create topic %q: %w", internal.ErrBootstrap, topic, err)
		}
		logger.Debug("Topic already exists", zap.String("topic", topic), zap.Error(err))
	}

	if err := b.CreateSubscription(ctx, subscription, topic); err != nil {
		if !errors.Is(err, broker.ErrAlreadyExists) {
			return fmt.Errorf("%w: create subscription %q: %w", internal.ErrBootstrap, subscription, err)
		}
		logger.Debug("Subscription already exists", zap.String("subscription", subscription), zap.Error(err))
	}

	return nil
}
