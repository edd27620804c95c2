package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pubsubchat/internal/broker"
	"pubsubchat/internal/chat"
	"pubsubchat/internal/config"
	"pubsubchat/internal/crypto"
	"pubsubchat/internal/identity"
	chatlog "pubsubchat/internal/log"

	"github.com/gookit/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const usage = "Usage: chat <username>\n<username> should be either '1' or '2'"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// newApp reports every misuse, unknown flags included, as the usage text on
// stderr with exit status 1.
func newApp() *cli.App {
	return &cli.App{
		Name:            "chat",
		Usage:           "two-party chat over a publish/subscribe broker",
		ArgsUsage:       "<1|2>",
		HideHelpCommand: true,
		Action:          run,
		OnUsageError: func(_ *cli.Context, _ error, _ bool) error {
			return cli.Exit(usage, 1)
		},
	}
}

// run keeps every defer on the way out, so the broker is always closed.
func run(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return cli.Exit(usage, 1)
	}
	self, err := identity.Parse(cliCtx.Args().First())
	if err != nil {
		return cli.Exit(usage, 1)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := chatlog.SetupLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithPublishTimeout(cfg.PublishTimeout),
		chat.WithPromptStyle(func(prompt string) string {
			return color.New(color.FgCyan, color.OpBold).Render(prompt)
		}),
	}
	if cfg.Broker == config.BrokerPubSub {
		opts = append(opts, chat.WithProject(cfg.ProjectID))
	}
	if cfg.DecodeFailurePolicy == config.DecodeFailureNack {
		opts = append(opts, chat.WithDecodeFailurePolicy(chat.RedeliverOnDecodeFailure))
	}
	if cfg.SecretFile != "" {
		secret, err := crypto.LoadSecret(cfg.SecretFile)
		if err != nil {
			return err
		}
		sealer, err := crypto.NewSealer(secret)
		if err != nil {
			return err
		}
		opts = append(opts, chat.WithCodec(sealer))
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := broker.New(ctx, cfg, self.SubscriptionName())
	if err != nil {
		return fmt.Errorf("connect to %s broker: %w", cfg.Broker, err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Closing broker failed", zap.Error(err))
		}
	}()

	if cfg.Broker == config.BrokerMemory {
		logger.Warn("The memory broker lives inside this process, so only this user's own messages reach it")
	}

	logger.Info("Starting chat",
		zap.String("identity", self.Tag()),
		zap.String("broker", cfg.Broker),
		zap.String("project", cfg.ProjectID),
		zap.String("topic", cfg.TopicID),
	)

	return chat.NewSession(b, self, cfg.TopicID, os.Stdin, os.Stdout, opts...).Run(ctx)
}
