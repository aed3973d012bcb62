package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
)

// TelegramChannel implements the Channel interface for Telegram groups.
type TelegramChannel struct {
	token       string
	apiEndpoint string
	allowedIDs  map[int64]bool // Allowed chat IDs (empty = allow all)
	bot         *tgbotapi.BotAPI
	messages    chan *Message
	done        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// TelegramConfig holds Telegram channel configuration.
type TelegramConfig struct {
	Token       string  // Bot token from BotFather
	AllowedIDs  []int64 // Allowed group chat IDs (empty = allow all)
	APIEndpoint string  // optional, defaults to tgbotapi.APIEndpoint
}

// NewTelegramChannel creates a new Telegram channel.
func NewTelegramChannel(cfg TelegramConfig) *TelegramChannel {
	allowedIDs := make(map[int64]bool)
	for _, id := range cfg.AllowedIDs {
		allowedIDs[id] = true
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	return &TelegramChannel{
		token:       cfg.Token,
		apiEndpoint: endpoint,
		allowedIDs:  allowedIDs,
		messages:    make(chan *Message, runtimecfg.TelegramChannelMessageBufferSize),
		done:        make(chan struct{}),
	}
}

// Name returns the channel name.
func (t *TelegramChannel) Name() string {
	return "telegram"
}

// Start connects the bot and begins long polling.
func (t *TelegramChannel) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.apiEndpoint)
	if err != nil {
		return fmt.Errorf("telegram connection failed: %w", err)
	}
	t.bot = bot
	logger.Info("telegram bot connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = runtimecfg.TelegramUpdateTimeoutSeconds
	updates := bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go t.pollUpdates(ctx, updates)

	logger.Info("telegram channel started")
	return nil
}

// Stop gracefully shuts down the channel.
func (t *TelegramChannel) Stop() error {
	t.stopOnce.Do(func() {
		if t.bot != nil {
			t.bot.StopReceivingUpdates()
		}
		close(t.done)
		t.wg.Wait()
		close(t.messages)
		logger.Info("telegram channel stopped")
	})
	return nil
}

// Send posts resp.Text to the chat named in its metadata, split at the
// Telegram length limit.
func (t *TelegramChannel) Send(_ context.Context, resp *Response) error {
	if t.bot == nil {
		return ErrNotRunning
	}

	target := resp.Metadata[MetaChatID]
	if target == "" {
		target = resp.Metadata[MetaGroupID]
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", target, err)
	}
	replyTo, _ := strconv.Atoi(resp.ReplyTo)

	for i, chunk := range SplitMessage(resp.Text, runtimecfg.TelegramMaxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.DisableWebPagePreview = true
		if i == 0 && replyTo > 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// Messages returns the incoming message channel.
func (t *TelegramChannel) Messages() <-chan *Message {
	return t.messages
}

func (t *TelegramChannel) pollUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer t.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.processUpdate(update)
		}
	}
}

func (t *TelegramChannel) processUpdate(update tgbotapi.Update) {
	var selfID int64
	if t.bot != nil {
		selfID = t.bot.Self.ID
	}
	msg, ok := telegramGroupMessage(update.Message, selfID)
	if !ok {
		return
	}

	if len(t.allowedIDs) > 0 {
		chatID, _ := strconv.ParseInt(msg.Metadata[MetaChatID], 10, 64)
		if !t.allowedIDs[chatID] {
			logger.Warn("telegram message from unauthorized chat",
				"chatID", chatID,
				"userID", msg.UserID,
				"username", msg.Username,
			)
			return
		}
	}

	select {
	case t.messages <- msg:
	default:
		logger.Warn("telegram message buffer full, dropping message")
	}
}

// telegramGroupMessage converts a group or supergroup message. Private chats
// and messages without text are ignored.
func telegramGroupMessage(msg *tgbotapi.Message, selfID int64) (*Message, bool) {
	if msg == nil || msg.Chat == nil {
		return nil, false
	}
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		return nil, false
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	var fromID int64
	username := ""
	fromSelf := false
	if msg.From != nil {
		fromID = msg.From.ID
		username = msg.From.UserName
		fromSelf = selfID != 0 && msg.From.ID == selfID
	}
	forwarded := msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardDate != 0 || msg.ReplyToMessage != nil

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	out := &Message{
		ID:        strconv.Itoa(msg.MessageID),
		ChannelID: "telegram:" + chatID,
		UserID:    strconv.FormatInt(fromID, 10),
		Username:  username,
		Text:      text,
		Metadata: map[string]string{
			MetaGroupID:   chatID,
			MetaChatID:    chatID,
			MetaChatType:  msg.Chat.Type,
			MetaFromSelf:  boolString(fromSelf),
			MetaForwarded: boolString(forwarded),
		},
	}
	if msg.ReplyToMessage != nil {
		out.ReplyTo = strconv.Itoa(msg.ReplyToMessage.MessageID)
	}
	return out, true
}
