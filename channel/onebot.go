package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
)

// OneBotChannel speaks OneBot v11 over a forward websocket connection
// (go-cqhttp, NapCat, Lagrange). Only group messages are delivered.
type OneBotChannel struct {
	wsURL       string
	accessToken string
	reconnect   time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	echo     atomic.Int64
	cancel   context.CancelFunc
	messages chan *Message
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// OneBotConfig holds OneBot channel configuration.
type OneBotConfig struct {
	WSURL       string
	AccessToken string
	// ReconnectInterval of zero disables reconnection.
	ReconnectInterval time.Duration
}

// NewOneBotChannel creates a new OneBot channel.
func NewOneBotChannel(cfg OneBotConfig) *OneBotChannel {
	interval := cfg.ReconnectInterval
	if interval > 0 && interval < runtimecfg.OneBotMinReconnectInterval {
		interval = runtimecfg.OneBotMinReconnectInterval
	}
	return &OneBotChannel{
		wsURL:       cfg.WSURL,
		accessToken: cfg.AccessToken,
		reconnect:   interval,
		messages:    make(chan *Message, runtimecfg.OneBotChannelMessageBufferSize),
	}
}

// Name returns the channel name.
func (c *OneBotChannel) Name() string {
	return "onebot"
}

// Start dials the websocket and starts the read loop. A failed first dial is
// fatal only when reconnection is disabled.
func (c *OneBotChannel) Start(ctx context.Context) error {
	if c.wsURL == "" {
		return errors.New("onebot ws_url not configured")
	}

	ctx, c.cancel = context.WithCancel(ctx)
	logger.Info("onebot channel starting", "wsURL", c.wsURL)

	conn, err := c.dial(ctx)
	if err != nil {
		if c.reconnect <= 0 {
			c.cancel()
			return fmt.Errorf("onebot connection failed: %w", err)
		}
		logger.Warn("onebot initial connection failed, will retry", "err", err, "interval", c.reconnect)
	}

	c.wg.Add(1)
	go c.run(ctx, conn)

	logger.Info("onebot channel started")
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (c *OneBotChannel) Stop() error {
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
		c.wg.Wait()
		close(c.messages)
		logger.Info("onebot channel stopped")
	})
	return nil
}

// Messages returns the incoming message channel.
func (c *OneBotChannel) Messages() <-chan *Message {
	return c.messages
}

// Send calls send_group_msg for every chunk of resp.Text.
func (c *OneBotChannel) Send(ctx context.Context, resp *Response) error {
	groupID, err := strconv.ParseInt(resp.Metadata[MetaGroupID], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid group ID %q: %w", resp.Metadata[MetaGroupID], err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotRunning
	}

	for _, chunk := range SplitMessage(resp.Text, runtimecfg.OneBotMaxMessageLength) {
		req := oneBotAPIRequest{
			Action: "send_group_msg",
			Params: oneBotSendGroupMsgParams{
				GroupID:    groupID,
				Message:    chunk,
				AutoEscape: true,
			},
			Echo: c.nextEcho("send"),
		}
		if err := c.writeJSON(ctx, conn, req); err != nil {
			return fmt.Errorf("onebot send: %w", err)
		}
	}
	return nil
}

func (c *OneBotChannel) writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(runtimecfg.OneBotHandshakeTimeout)
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func (c *OneBotChannel) nextEcho(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, c.echo.Add(1))
}

func (c *OneBotChannel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: runtimecfg.OneBotHandshakeTimeout,
	}

	header := http.Header{}
	if c.accessToken != "" {
		header.Set("Authorization", "Bearer "+c.accessToken)
	}

	conn, _, err := dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	logger.Info("onebot websocket connected")
	return conn, nil
}

// run reads from conn until it fails, then redials every reconnect interval.
func (c *OneBotChannel) run(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		if conn != nil {
			c.listen(ctx, conn)
			c.mu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()
		}
		if ctx.Err() != nil || c.reconnect <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnect):
		}

		logger.Info("onebot reconnecting")
		var err error
		conn, err = c.dial(ctx)
		if err != nil {
			logger.Error("onebot reconnect failed", "err", err)
		}
	}
}

func (c *OneBotChannel) listen(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("onebot websocket read error", "err", err)
			}
			return
		}

		msg, err := parseOneBotEvent(payload)
		if err != nil {
			logger.Warn("onebot event ignored", "err", err, "length", len(payload))
			continue
		}
		if msg == nil {
			continue
		}

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return
		default:
			logger.Warn("onebot message buffer full, dropping message")
		}
	}
}

type oneBotRawEvent struct {
	PostType      string          `json:"post_type"`
	MessageType   string          `json:"message_type"`
	SubType       string          `json:"sub_type"`
	MessageID     json.RawMessage `json:"message_id"`
	UserID        json.RawMessage `json:"user_id"`
	GroupID       json.RawMessage `json:"group_id"`
	SelfID        json.RawMessage `json:"self_id"`
	RawMessage    string          `json:"raw_message"`
	Message       json.RawMessage `json:"message"`
	Sender        oneBotSender    `json:"sender"`
	MetaEventType string          `json:"meta_event_type"`
	Echo          string          `json:"echo"`
	Status        json.RawMessage `json:"status"`
	RetCode       json.RawMessage `json:"retcode"`
}

type oneBotSender struct {
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
}

type oneBotSegment struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type oneBotAPIRequest struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo,omitempty"`
}

type oneBotSendGroupMsgParams struct {
	GroupID    int64  `json:"group_id"`
	Message    string `json:"message"`
	AutoEscape bool   `json:"auto_escape"`
}

// parseOneBotEvent returns the group message carried by payload, or nil for
// API responses, meta events and non-group messages.
func parseOneBotEvent(payload []byte) (*Message, error) {
	var raw oneBotRawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	if raw.Echo != "" {
		if code, _ := parseJSONInt64(raw.RetCode); code != 0 {
			logger.Warn("onebot api call failed", "echo", raw.Echo, "retcode", code)
		}
		return nil, nil
	}

	switch raw.PostType {
	case "message", "message_sent":
	case "meta_event":
		logger.Debug("onebot meta event", "type", raw.MetaEventType)
		return nil, nil
	default:
		return nil, nil
	}
	if raw.MessageType != "group" {
		return nil, nil
	}

	groupID, err := parseJSONInt64(raw.GroupID)
	if err != nil {
		return nil, fmt.Errorf("parse group_id %s: %w", string(raw.GroupID), err)
	}
	if groupID == 0 {
		return nil, errors.New("group message without group_id")
	}
	userID, err := parseJSONInt64(raw.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id %s: %w", string(raw.UserID), err)
	}
	selfID, _ := parseJSONInt64(raw.SelfID)

	text, quoted := oneBotMessageText(raw.Message, raw.RawMessage)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	username := raw.Sender.Card
	if username == "" {
		username = raw.Sender.Nickname
	}

	group := strconv.FormatInt(groupID, 10)
	return &Message{
		ID:        parseJSONString(raw.MessageID),
		ChannelID: "onebot:" + group,
		UserID:    strconv.FormatInt(userID, 10),
		Username:  username,
		Text:      text,
		Metadata: map[string]string{
			MetaGroupID:   group,
			MetaChatID:    group,
			MetaChatType:  raw.MessageType,
			MetaFromSelf:  boolString(raw.PostType == "message_sent" || (selfID != 0 && selfID == userID)),
			MetaForwarded: boolString(quoted),
		},
	}, nil
}

var cqCodePattern = regexp.MustCompile(`\[CQ:([a-z_]+)[^\]]*\]`)

// oneBotMessageText flattens a segment array or CQ string into plain text and
// reports whether it quotes or forwards another message.
func oneBotMessageText(message json.RawMessage, rawMessage string) (string, bool) {
	var segments []oneBotSegment
	if len(message) > 0 && message[0] == '[' && json.Unmarshal(message, &segments) == nil {
		var b strings.Builder
		quoted := false
		for _, seg := range segments {
			switch seg.Type {
			case "text":
				var data struct {
					Text string `json:"text"`
				}
				if json.Unmarshal(seg.Data, &data) == nil {
					b.WriteString(data.Text)
				}
			case "reply", "forward", "node":
				quoted = true
			}
		}
		return b.String(), quoted
	}

	content := rawMessage
	if content == "" {
		content = parseJSONString(message)
	}
	quoted := false
	for _, m := range cqCodePattern.FindAllStringSubmatch(content, -1) {
		if m[1] == "reply" || m[1] == "forward" {
			quoted = true
		}
	}
	return unescapeCQ(cqCodePattern.ReplaceAllString(content, "")), quoted
}

var cqUnescaper = strings.NewReplacer("&#91;", "[", "&#93;", "]", "&#44;", ",", "&amp;", "&")

func unescapeCQ(s string) string {
	return cqUnescaper.Replace(s)
}

func parseJSONInt64(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	return 0, fmt.Errorf("cannot parse as int64: %s", string(raw))
}

func parseJSONString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
