// Package channel provides messaging channel interfaces and implementations.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/linanwx/urlsummarizer/logger"
)

// Metadata keys shared by all channels.
const (
	MetaGroupID   = "group_id"  // group the message was posted in
	MetaChatID    = "chat_id"   // platform chat to answer in
	MetaChatType  = "chat_type" // platform specific
	MetaFromSelf  = "from_self" // "true" when sent by the bot account
	MetaForwarded = "forwarded" // "true" for forwarded or quoted messages
)

// Message represents an incoming message from a channel.
type Message struct {
	ID        string            // Unique message ID
	ChannelID string            // Channel identifier (e.g., "telegram:123456")
	UserID    string            // User identifier
	Username  string            // Human-readable username
	Text      string            // Message text
	ReplyTo   string            // ID of message being replied to (if any)
	Metadata  map[string]string // Channel-specific metadata
}

// GroupID returns the group the message was posted in.
func (m *Message) GroupID() string {
	if m == nil {
		return ""
	}
	return m.Metadata[MetaGroupID]
}

// Flag reports whether a boolean metadata key is set.
func (m *Message) Flag(key string) bool {
	if m == nil {
		return false
	}
	return m.Metadata[key] == "true"
}

// Response represents a response to send back.
type Response struct {
	Text     string            // Response text
	ReplyTo  string            // Message ID to reply to
	Metadata map[string]string // Routing: group_id / chat_id of the source message
}

// ResponseTo builds a response routed back to the chat msg came from.
func ResponseTo(msg *Message, text string) *Response {
	meta := make(map[string]string, 2)
	if msg != nil {
		for _, k := range []string{MetaGroupID, MetaChatID} {
			if v := msg.Metadata[k]; v != "" {
				meta[k] = v
			}
		}
	}
	resp := &Response{Text: text, Metadata: meta}
	if msg != nil {
		resp.ReplyTo = msg.ID
	}
	return resp
}

// Channel is the interface for messaging channels.
type Channel interface {
	// Name returns the channel name (e.g., "telegram", "cli", "onebot").
	Name() string

	// Start begins listening for messages.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop() error

	// Send sends a response message.
	Send(ctx context.Context, resp *Response) error

	// Messages returns a channel for receiving incoming messages.
	Messages() <-chan *Message
}

// ErrNotRunning is returned by Send before Start or after Stop.
var ErrNotRunning = errors.New("channel not running")

// Manager manages multiple channels as a pure registry.
type Manager struct {
	channels map[string]Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the manager and logs it. Nil is silently ignored.
func (m *Manager) Register(ch Channel) {
	if ch == nil {
		return
	}
	m.channels[ch.Name()] = ch
	logger.Info("channel registered", "channel", ch.Name())
}

// Get returns a channel by name.
func (m *Manager) Get(name string) (Channel, bool) {
	ch, ok := m.channels[name]
	return ch, ok
}

// Len returns the number of registered channels.
func (m *Manager) Len() int {
	return len(m.channels)
}

// SendTo sends a response through a named channel.
func (m *Manager) SendTo(ctx context.Context, channelName string, resp *Response) error {
	ch, ok := m.channels[channelName]
	if !ok {
		return fmt.Errorf("channel not found: %s", channelName)
	}
	return ch.Send(ctx, resp)
}

// StartAll starts all registered channels. The cli channel starts last so
// remote connection logs do not interleave with its prompt.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, name := range m.names() {
		if err := m.channels[name].Start(ctx); err != nil {
			return fmt.Errorf("start %s channel: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all registered channels and reports every failure.
func (m *Manager) StopAll() error {
	var errs []error
	for _, name := range m.names() {
		if err := m.channels[name].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s channel: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Each iterates over all registered channels.
func (m *Manager) Each(fn func(Channel)) {
	for _, name := range m.names() {
		fn(m.channels[name])
	}
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == "cli") != (names[j] == "cli") {
			return names[j] == "cli"
		}
		return names[i] < names[j]
	})
	return names
}

// SplitMessage splits a long message into chunks (byte-based maxLen),
// preferring newline boundaries and avoiding mid-rune splits.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		// Try to split at newline within the byte window.
		splitAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/2 {
			splitAt = idx + 1
		}

		// Avoid splitting in the middle of a multi-byte UTF-8 character.
		for splitAt > 0 && !utf8.RuneStart(text[splitAt]) {
			splitAt--
		}
		if splitAt == 0 {
			// Entire prefix is a continuation byte sequence; advance past the rune.
			_, size := utf8.DecodeRuneInString(text)
			splitAt = size
		}

		chunks = append(chunks, text[:splitAt])
		text = text[splitAt:]
	}

	return chunks
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
