package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/linanwx/urlsummarizer/channel"
	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start urlsummarizer with channel integrations",
	Long: `Start urlsummarizer as a long-running service that listens on group chats.

Supported channels:
  - cli: Interactive command line, every line is a message in group "cli"
  - telegram: Telegram bot (requires TELEGRAM_BOT_TOKEN or channels.telegram.token)
  - onebot: OneBot v11 forward websocket (requires ONEBOT_WS_URL or channels.onebot.wsUrl)

Examples:
  urlsummarizer serve              # Start every configured channel (cli if none)
  urlsummarizer serve --cli        # Start with CLI channel only
  urlsummarizer serve --onebot     # Start OneBot only`,
	RunE: runServe,
}

var (
	serveCLI      bool
	serveTelegram bool
	serveOneBot   bool
)

func init() {
	serveCmd.Flags().BoolVar(&serveCLI, "cli", false, "Enable CLI channel")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", false, "Enable Telegram bot channel")
	serveCmd.Flags().BoolVar(&serveOneBot, "onebot", false, "Enable OneBot v11 channel")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	printPostprocessNotice(cfg)

	targets, err := resolveServeTargets(cmd, cfg)
	if err != nil {
		return err
	}

	chManager := channel.NewManager()
	for _, ch := range buildChannels(cfg, targets) {
		chManager.Register(ch)
	}

	p := buildPipeline(cfg)
	if !p.Enabled() {
		logger.Warn("summary replies are disabled; messages will only be filtered")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("urlsummarizer is running. Press Ctrl+C to stop.")

	if err := chManager.StartAll(ctx); err != nil {
		_ = chManager.StopAll()
		return fmt.Errorf("failed to start channels: %w", err)
	}

	// Blocks until every channel stream closes or a signal arrives.
	NewDispatcher(chManager, p, cfg).Run(ctx)

	if err := chManager.StopAll(); err != nil {
		logger.Error("error stopping channels", "err", err)
	}

	logger.Info("urlsummarizer service stopped")
	return nil
}

type serveTargets struct {
	cli      bool
	telegram bool
	onebot   bool
}

// resolveServeTargets honours explicit flags; without any, every channel
// with credentials starts, and cli is used when none has them.
func resolveServeTargets(cmd *cobra.Command, cfg *config.Config) (serveTargets, error) {
	if cmd == nil {
		return serveTargets{}, fmt.Errorf("serve command is nil")
	}
	flags := cmd.Flags()
	if flags.Changed("cli") || flags.Changed("telegram") || flags.Changed("onebot") {
		t := serveTargets{cli: serveCLI, telegram: serveTelegram, onebot: serveOneBot}
		if !t.cli && !t.telegram && !t.onebot {
			return t, fmt.Errorf("no channels enabled; use --cli, --telegram or --onebot")
		}
		return t, nil
	}

	t := serveTargets{
		telegram: cfg.GetTelegramToken() != "",
		onebot:   cfg.GetOneBotURL() != "",
	}
	t.cli = !t.telegram && !t.onebot
	return t, nil
}

func buildChannels(cfg *config.Config, t serveTargets) []channel.Channel {
	var out []channel.Channel
	if t.cli {
		out = append(out, channel.NewCLIChannel(channel.CLIConfig{}))
	}
	if t.telegram {
		tg := channel.TelegramConfig{Token: cfg.GetTelegramToken()}
		if cfg.Channels != nil && cfg.Channels.Telegram != nil {
			tg.AllowedIDs = cfg.Channels.Telegram.AllowedIDs
		}
		out = append(out, channel.NewTelegramChannel(tg))
	}
	if t.onebot {
		ob := channel.OneBotConfig{
			WSURL:             cfg.GetOneBotURL(),
			ReconnectInterval: time.Duration(runtimecfg.OneBotDefaultReconnectSeconds) * time.Second,
		}
		if cfg.Channels != nil && cfg.Channels.OneBot != nil {
			ob.AccessToken = cfg.Channels.OneBot.AccessToken
			if s := cfg.Channels.OneBot.ReconnectInterval; s > 0 {
				ob.ReconnectInterval = time.Duration(s) * time.Second
			}
		}
		out = append(out, channel.NewOneBotChannel(ob))
	}
	return out
}
