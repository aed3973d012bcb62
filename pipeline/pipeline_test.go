package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/filter"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &syncBuffer{}
	logger.SetOutput(buf, "debug")
	t.Cleanup(func() { logger.SetOutput(&bytes.Buffer{}, "error") })
	return &buf.buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func fetcherFor(fn func(ctx context.Context, url string) (string, error), maxRetries int) *summary.Fetcher {
	return summary.NewFetcher(summary.SummarizerFunc(fn), time.Second, maxRetries, summary.WithBackoff(0, 0))
}

func constant(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

type upperPolisher struct{}

func (upperPolisher) Polish(_ context.Context, s string) string { return strings.ToUpper(s) }

func renderAll(p *Pipeline, msg Message) []string {
	var out []string
	for _, r := range p.Handle(context.Background(), msg) {
		out = append(out, r.String())
	}
	return out
}

func TestHandleReplyForPlainURL(t *testing.T) {
	p := New(config.DefaultConfig(), fetcherFor(constant("sum1"), 2), nil)

	got := renderAll(p, Message{Text: "see this https://example.com/a", GroupID: "g1"})
	assert.Equal(t, []string{"📝内容摘要：\nhttps://example.com/a\nsum1"}, got)
}

func TestHandleKeywordBlacklistSuppressesReply(t *testing.T) {
	var calls atomic.Int32
	cfg := config.DefaultConfig()
	cfg.Summary.BlacklistKeywords = []string{"example.com"}
	p := New(cfg, fetcherFor(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "sum1", nil
	}, 2), nil)

	assert.Empty(t, renderAll(p, Message{Text: "see this https://example.com/a", GroupID: "g1"}))
	assert.Zero(t, calls.Load())
}

func TestHandleDisabledEmitsNothing(t *testing.T) {
	var calls atomic.Int32
	cfg := config.DefaultConfig()
	off := false
	cfg.Summary.Enabled = &off
	p := New(cfg, fetcherFor(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "sum1", nil
	}, 2), nil)

	assert.False(t, p.Enabled())
	assert.Empty(t, renderAll(p, Message{Text: "see this https://example.com/a https://go.dev", GroupID: "g1"}))
	assert.Zero(t, calls.Load())
	assert.Len(t, p.Inspect(Message{Text: "see this https://example.com/a https://go.dev", GroupID: "g1"}), 2)
}

func TestHandleFetchFailureLogsOnce(t *testing.T) {
	buf := captureLogs(t)
	var calls atomic.Int32
	p := New(config.DefaultConfig(), fetcherFor(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.New("service unavailable")
	}, 2), nil)

	assert.Empty(t, renderAll(p, Message{Text: "see this https://example.com/a", GroupID: "g1"}))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, strings.Count(buf.String(), "level=ERROR"))
	assert.Contains(t, buf.String(), "summary fetch failed")
	assert.Contains(t, buf.String(), "attempts=3")
}

func TestHandleOneFailureDoesNotBlockOthers(t *testing.T) {
	buf := captureLogs(t)
	p := New(config.DefaultConfig(), fetcherFor(func(_ context.Context, url string) (string, error) {
		if strings.Contains(url, "bad") {
			return "", errors.New("boom")
		}
		return "ok " + url, nil
	}, 1), nil)

	got := renderAll(p, Message{Text: "https://bad.example.com/x and https://good.example.com/y", GroupID: "g1"})
	assert.Equal(t, []string{"📝内容摘要：\nhttps://good.example.com/y\nok https://good.example.com/y"}, got)
	assert.Equal(t, 1, strings.Count(buf.String(), "level=ERROR"))
}

func TestHandlePreservesOrderAndDedupes(t *testing.T) {
	var calls atomic.Int32
	p := New(config.DefaultConfig(), fetcherFor(func(_ context.Context, url string) (string, error) {
		calls.Add(1)
		if strings.HasSuffix(url, "/1") {
			time.Sleep(30 * time.Millisecond)
		}
		return "s" + url[len(url)-1:], nil
	}, 0), nil)

	msg := Message{Text: "https://a.example.com/1 (https://a.example.com/2) https://a.example.com/1。https://a.example.com/3", GroupID: "g"}
	replies := p.Handle(context.Background(), msg)
	require.Len(t, replies, 3)
	assert.Equal(t, "https://a.example.com/1", replies[0].URL)
	assert.Equal(t, "https://a.example.com/2", replies[1].URL)
	assert.Equal(t, "https://a.example.com/3", replies[2].URL)
	assert.Equal(t, "s1", replies[0].Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHandleSkipsMessages(t *testing.T) {
	var calls atomic.Int32
	p := New(config.DefaultConfig(), fetcherFor(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "sum", nil
	}, 0), nil)

	tests := []struct {
		name string
		msg  Message
	}{
		{name: "own message", msg: Message{Text: "https://example.com", GroupID: "g", FromSelf: true}},
		{name: "forwarded", msg: Message{Text: "https://example.com", GroupID: "g", Forwarded: true}},
		{name: "blank", msg: Message{Text: "   ", GroupID: "g"}},
		{name: "already summarized", msg: Message{Text: "📝内容摘要：\nhttps://example.com\nsum", GroupID: "g"}},
		{name: "no url", msg: Message{Text: "hello there", GroupID: "g"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, p.Handle(context.Background(), tc.msg))
		})
	}
	assert.Zero(t, calls.Load())
}

func TestHandleCustomPrefixGuardsLoop(t *testing.T) {
	cfg := config.DefaultConfig()
	prefix := "[TL;DR]"
	cfg.Summary.Prefix = &prefix
	p := New(cfg, fetcherFor(constant("sum"), 0), nil)

	assert.Empty(t, p.Handle(context.Background(), Message{Text: "[TL;DR]\nhttps://example.com\nsum", GroupID: "g"}))
	got := renderAll(p, Message{Text: "https://example.com", GroupID: "g"})
	assert.Equal(t, []string{"[TL;DR]\nhttps://example.com\nsum"}, got)
}

func TestHandleUsesPolisher(t *testing.T) {
	p := New(config.DefaultConfig(), fetcherFor(constant("sum1"), 0), upperPolisher{})
	got := renderAll(p, Message{Text: "https://example.com/a", GroupID: "g"})
	assert.Equal(t, []string{"📝内容摘要：\nhttps://example.com/a\nSUM1"}, got)
}

func TestHandleInvalidConfigFailsClosed(t *testing.T) {
	captureLogs(t)
	cfg := config.DefaultConfig()
	cfg.Summary.Timeout = -1
	p := New(cfg, fetcherFor(constant("sum1"), 0), nil)

	assert.False(t, p.Enabled())
	assert.Empty(t, p.Handle(context.Background(), Message{Text: "https://example.com/a", GroupID: "g"}))
}

func TestHandleCancelledReturnsNothing(t *testing.T) {
	captureLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	p := New(config.DefaultConfig(), fetcherFor(func(attemptCtx context.Context, _ string) (string, error) {
		calls.Add(1)
		cancel()
		<-attemptCtx.Done()
		return "", attemptCtx.Err()
	}, 3), nil)

	assert.Empty(t, p.Handle(ctx, Message{Text: "https://example.com/a", GroupID: "g"}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestInspectReportsReasons(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Summary.TriggerKeywords = []string{"tldr"}
	p := New(cfg, fetcherFor(constant("x"), 0), nil)

	ds := p.Inspect(Message{Text: "https://www.baidu.com/s https://example.com", GroupID: "g"})
	require.Len(t, ds, 2)
	assert.Equal(t, filter.ReasonKeywordBlacklisted, ds[0].Reason)
	assert.Equal(t, filter.ReasonNoTriggerMatch, ds[1].Reason)
}

func TestDeliverSendsEachReply(t *testing.T) {
	buf := captureLogs(t)
	p := New(config.DefaultConfig(), fetcherFor(constant("sum"), 0), nil)

	var sent []string
	n := p.Deliver(context.Background(), Message{Text: "https://a.example.com https://b.example.com", GroupID: "g"}, func(text string) error {
		if strings.Contains(text, "a.example.com") {
			return errors.New("rate limited")
		}
		sent = append(sent, text)
		return nil
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"📝内容摘要：\nhttps://b.example.com\nsum"}, sent)
	assert.Contains(t, buf.String(), "send summary reply failed")
}
