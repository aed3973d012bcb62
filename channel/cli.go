package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
)

// CLIChannel reads group messages from a terminal. Every line is treated as
// a message posted to one fixed group.
type CLIChannel struct {
	prompt   string
	group    string
	in       io.Reader
	out      io.Writer
	messages chan *Message
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	writeMu  sync.Mutex
	msgID    int64
}

// CLIConfig holds CLI channel configuration.
type CLIConfig struct {
	Prompt string    // Input prompt (default: "> ")
	Group  string    // Group ID attached to every line (default: "cli")
	In     io.Reader // default: os.Stdin
	Out    io.Writer // default: os.Stdout
}

// NewCLIChannel creates a new CLI channel.
func NewCLIChannel(cfg CLIConfig) *CLIChannel {
	c := &CLIChannel{
		prompt:   cfg.Prompt,
		group:    cfg.Group,
		in:       cfg.In,
		out:      cfg.Out,
		messages: make(chan *Message, runtimecfg.CLIChannelMessageBufferSize),
		done:     make(chan struct{}),
	}
	if c.prompt == "" {
		c.prompt = "> "
	}
	if c.group == "" {
		c.group = "cli"
	}
	if c.in == nil {
		c.in = os.Stdin
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	return c
}

// Name returns the channel name.
func (c *CLIChannel) Name() string {
	return "cli"
}

// Start begins reading input lines.
func (c *CLIChannel) Start(ctx context.Context) error {
	logger.Info("cli channel started", "group", c.group)

	c.wg.Add(1)
	go c.readInput(ctx)

	return nil
}

// Stop gracefully shuts down the channel.
func (c *CLIChannel) Stop() error {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	logger.Info("cli channel stopped")
	return nil
}

// Send prints a response followed by an empty line.
func (c *CLIChannel) Send(_ context.Context, resp *Response) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := fmt.Fprintf(c.out, "%s\n\n", resp.Text)
	return err
}

// Messages returns the incoming message channel. It is closed when input
// ends.
func (c *CLIChannel) Messages() <-chan *Message {
	return c.messages
}

func (c *CLIChannel) readInput(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.messages)

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		c.writeMu.Lock()
		fmt.Fprint(c.out, c.prompt)
		c.writeMu.Unlock()

		if !scanner.Scan() {
			return
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" || text == "/exit" || text == "/quit" {
			return
		}

		c.msgID++
		msg := &Message{
			ID:        fmt.Sprintf("cli-%d", c.msgID),
			ChannelID: "cli:" + c.group,
			UserID:    "local",
			Username:  os.Getenv("USER"),
			Text:      text,
			Metadata: map[string]string{
				MetaGroupID:   c.group,
				MetaChatID:    c.group,
				MetaFromSelf:  "false",
				MetaForwarded: "false",
			},
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
