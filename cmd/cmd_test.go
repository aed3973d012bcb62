package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/urlsummarizer/channel"
	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/pipeline"
)

type recordingChannel struct {
	msgs chan *channel.Message

	mu   sync.Mutex
	sent []*channel.Response
}

func (r *recordingChannel) Name() string                { return "fake" }
func (r *recordingChannel) Start(context.Context) error { return nil }
func (r *recordingChannel) Stop() error                 { return nil }
func (r *recordingChannel) Messages() <-chan *channel.Message {
	return r.msgs
}
func (r *recordingChannel) Send(_ context.Context, resp *channel.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, resp)
	return nil
}

type echoHandler struct {
	mu  sync.Mutex
	got []pipeline.Message
}

func (h *echoHandler) Deliver(ctx context.Context, msg pipeline.Message, send func(string) error) int {
	h.mu.Lock()
	h.got = append(h.got, msg)
	h.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return 0
	}
	if err := send("reply to " + msg.Text); err != nil {
		return 0
	}
	return 1
}

func TestDispatcherRoutesRepliesToSourceGroup(t *testing.T) {
	ch := &recordingChannel{msgs: make(chan *channel.Message, 2)}
	ch.msgs <- &channel.Message{
		ID:     "9",
		Text:   "https://example.com",
		UserID: "u1",
		Metadata: map[string]string{
			channel.MetaGroupID:   "g1",
			channel.MetaChatID:    "g1",
			channel.MetaForwarded: "true",
		},
	}
	close(ch.msgs)

	mgr := channel.NewManager()
	mgr.Register(ch)
	h := &echoHandler{}

	done := make(chan struct{})
	go func() {
		NewDispatcher(mgr, h, config.DefaultConfig()).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop after the stream closed")
	}

	require.Len(t, h.got, 1)
	assert.Equal(t, pipeline.Message{Text: "https://example.com", GroupID: "g1", SenderID: "u1", Forwarded: true}, h.got[0])
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "reply to https://example.com", ch.sent[0].Text)
	assert.Equal(t, "9", ch.sent[0].ReplyTo)
	assert.Equal(t, "g1", ch.sent[0].Metadata[channel.MetaGroupID])
}

func TestMessageDeadlineCoversEveryAttempt(t *testing.T) {
	cfg := config.DefaultConfig()
	// 3 attempts x 30s, 2 x 4s backoff, 30s post-processing, 15s grace.
	assert.Equal(t, 90*time.Second+8*time.Second+30*time.Second+15*time.Second, messageDeadline(cfg))

	zero := 0
	cfg.Summary.MaxRetries = &zero
	cfg.Summary.Timeout = 5
	assert.Equal(t, 5*time.Second+5*time.Second+15*time.Second, messageDeadline(cfg))
}

func newServeFlags() *cobra.Command {
	c := &cobra.Command{Use: "serve"}
	c.Flags().BoolVar(&serveCLI, "cli", false, "")
	c.Flags().BoolVar(&serveTelegram, "telegram", false, "")
	c.Flags().BoolVar(&serveOneBot, "onebot", false, "")
	return c
}

func TestResolveServeTargets(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("ONEBOT_WS_URL", "")

	cfg := config.DefaultConfig()
	got, err := resolveServeTargets(newServeFlags(), cfg)
	require.NoError(t, err)
	assert.Equal(t, serveTargets{cli: true}, got)

	cfg.Channels.OneBot.WSURL = "ws://127.0.0.1:3001"
	got, err = resolveServeTargets(newServeFlags(), cfg)
	require.NoError(t, err)
	assert.Equal(t, serveTargets{onebot: true}, got)

	c := newServeFlags()
	require.NoError(t, c.Flags().Set("telegram", "true"))
	got, err = resolveServeTargets(c, cfg)
	require.NoError(t, err)
	assert.Equal(t, serveTargets{telegram: true}, got)

	c = newServeFlags()
	require.NoError(t, c.Flags().Set("cli", "false"))
	_, err = resolveServeTargets(c, cfg)
	assert.Error(t, err)
}

func TestPostprocessProblems(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Empty(t, postprocessProblems(cfg))
	assert.Empty(t, postprocessProblems(nil))

	cfg.Summary.EnableLLMPostprocess = true
	assert.Empty(t, postprocessProblems(cfg))

	cfg.Summary.LLMPromptTemplate = "no placeholder"
	cfg.Summary.Provider = "nope"
	problems := postprocessProblems(cfg)
	require.Len(t, problems, 2)

	var buf bytes.Buffer
	writePostprocessNotice(&buf, cfg)
	assert.Contains(t, buf.String(), "raw summaries will be sent")
}

func TestWriteDecisions(t *testing.T) {
	cfg := config.DefaultConfig()
	p := pipeline.New(cfg, nil, nil)

	var buf bytes.Buffer
	writeDecisions(&buf, p, pipeline.Message{Text: "https://www.baidu.com/x https://example.com/a。", GroupID: "g"})
	out := buf.String()
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "https://www.baidu.com/x\tskip (keyword_blacklisted)")
	assert.Contains(t, out, "https://example.com/a\tsummarize")

	buf.Reset()
	writeDecisions(&buf, p, pipeline.Message{Text: "no links", GroupID: "g"})
	assert.Equal(t, "No URLs found.\n", buf.String())
}

func TestRunInitWritesOnce(t *testing.T) {
	dir := t.TempDir()
	config.SetConfigDir(dir)
	t.Cleanup(func() { config.SetConfigDir("") })

	initProvider, initModel, initAPIKey, initEnableLLM = "anthropic", "", "sk-test", true
	initOneBotURL = "ws://127.0.0.1:3001"
	t.Cleanup(func() {
		initProvider, initModel, initAPIKey, initEnableLLM, initOneBotURL = "deepseek", "", "", false, ""
	})

	c := &cobra.Command{}
	var out bytes.Buffer
	c.SetOut(&out)
	require.NoError(t, runInit(c, nil))
	assert.Contains(t, out.String(), "Config created")

	cfg, err := config.LoadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.ModelType)
	assert.Equal(t, "sk-test", cfg.Providers.Anthropic.APIKey)
	assert.True(t, cfg.Summary.EnableLLMPostprocess)
	assert.Equal(t, "ws://127.0.0.1:3001", cfg.Channels.OneBot.WSURL)

	before, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	initAPIKey = "sk-other"
	out.Reset()
	require.NoError(t, runInit(c, nil))
	assert.Contains(t, out.String(), "already exists")
	after, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuildInitConfigRequiresKeyForLLM(t *testing.T) {
	initProvider, initAPIKey, initEnableLLM = "deepseek", "", true
	t.Cleanup(func() { initProvider, initAPIKey, initEnableLLM = "deepseek", "", false })
	_, err := buildInitConfig()
	assert.ErrorContains(t, err, "--api-key")

	initProvider = "unknown"
	_, err = buildInitConfig()
	assert.ErrorContains(t, err, "unknown provider")
}
