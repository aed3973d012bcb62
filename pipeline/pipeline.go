// Package pipeline wires extraction, filtering, fetching, post-processing and
// reply composition for one incoming group message.
package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/extract"
	"github.com/linanwx/urlsummarizer/filter"
	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/reply"
	"github.com/linanwx/urlsummarizer/summary"
)

// Message is one inbound group message as seen by the pipeline.
type Message struct {
	Text     string
	GroupID  string
	SenderID string
	// FromSelf marks messages sent by the bot account itself.
	FromSelf bool
	// Forwarded marks forwarded or quoted messages.
	Forwarded bool
}

// Fetcher retrieves a summary with bounded retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) summary.Result
}

// Polisher is the best-effort post-processing stage. It returns its input
// when it cannot improve on it.
type Polisher interface {
	Polish(ctx context.Context, summary string) string
}

type passthrough struct{}

func (passthrough) Polish(_ context.Context, s string) string { return s }

// Pipeline holds read-only settings and is safe for concurrent use.
type Pipeline struct {
	enabled     bool
	prefix      string
	guards      []string
	policy      filter.Policy
	concurrency int
	fetcher     Fetcher
	polisher    Polisher
}

// New builds a pipeline. Invalid configuration disables replies.
func New(cfg *config.Config, fetcher Fetcher, polisher Polisher) *Pipeline {
	if polisher == nil {
		polisher = passthrough{}
	}

	p := &Pipeline{
		enabled:     cfg.SummaryEnabled(),
		prefix:      cfg.SummaryPrefix(),
		policy:      filter.PolicyFromConfig(cfg),
		concurrency: cfg.SummaryMaxConcurrency(),
		fetcher:     fetcher,
		polisher:    polisher,
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid summary configuration, replies disabled", "err", err)
		p.enabled = false
	}
	if fetcher == nil {
		logger.Error("no summary fetcher configured, replies disabled")
		p.enabled = false
	}

	p.guards = append(p.guards, runtimecfg.SummaryKnownPrefixes...)
	if strings.TrimSpace(p.prefix) != "" {
		p.guards = append(p.guards, strings.TrimSpace(p.prefix))
	}
	return p
}

// Enabled reports whether Handle may produce replies.
func (p *Pipeline) Enabled() bool {
	return p.enabled
}

// Inspect extracts and filters msg without any network access.
func (p *Pipeline) Inspect(msg Message) []filter.Decision {
	var out []filter.Decision
	for c := range extract.Extract(msg.Text) {
		out = append(out, filter.Decide(c, msg.GroupID, msg.Text, p.policy))
	}
	return out
}

// Handle returns the replies for msg in first-occurrence order. Fetch
// failures are logged once per URL and produce no reply. If ctx ends before
// all URLs are done, no replies are returned.
func (p *Pipeline) Handle(ctx context.Context, msg Message) []reply.Reply {
	if reason := p.skipReason(msg); reason != "" {
		logger.Debug("message skipped", "group", msg.GroupID, "reason", reason)
		return nil
	}

	decisions := p.Inspect(msg)
	if len(decisions) == 0 {
		return nil
	}
	for _, d := range decisions {
		logger.Debug("url filtered",
			"group", msg.GroupID,
			"url", d.URL.Cleaned,
			"allowed", d.Allowed,
			"reason", d.Reason.String(),
		)
	}
	if !p.enabled {
		return nil
	}

	urls := qualifying(decisions)
	if len(urls) == 0 {
		return nil
	}

	results := make([]*reply.Reply, len(urls))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = p.process(ctx, msg.GroupID, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn("message handling abandoned", "group", msg.GroupID, "err", err)
		return nil
	}

	out := make([]reply.Reply, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Deliver runs Handle and passes each rendered reply to send. Send errors
// are logged and do not stop later replies.
func (p *Pipeline) Deliver(ctx context.Context, msg Message, send func(text string) error) int {
	sent := 0
	for _, r := range p.Handle(ctx, msg) {
		if err := send(r.String()); err != nil {
			logger.Error("send summary reply failed", "group", msg.GroupID, "url", r.URL, "err", err)
			continue
		}
		sent++
	}
	return sent
}

func (p *Pipeline) process(ctx context.Context, groupID, url string) *reply.Reply {
	res := p.fetcher.Fetch(ctx, url)
	if !res.Succeeded {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error("summary fetch failed",
			"group", groupID,
			"url", url,
			"attempts", res.Attempts,
			"err", res.Err,
		)
		return nil
	}

	body := p.polisher.Polish(ctx, res.Text)
	r, err := reply.Compose(p.prefix, url, body)
	if err != nil {
		logger.Error("summary fetch failed", "group", groupID, "url", url, "attempts", res.Attempts, "err", err)
		return nil
	}
	return &r
}

func (p *Pipeline) skipReason(msg Message) string {
	switch {
	case msg.FromSelf:
		return "own message"
	case msg.Forwarded:
		return "forwarded or quoted"
	case strings.TrimSpace(msg.Text) == "":
		return "empty text"
	}
	for _, g := range p.guards {
		if strings.Contains(msg.Text, g) {
			return "already summarized"
		}
	}
	return ""
}

// qualifying returns allowed cleaned URLs, first occurrence only.
func qualifying(decisions []filter.Decision) []string {
	seen := make(map[string]struct{}, len(decisions))
	var out []string
	for _, d := range decisions {
		if !d.Allowed {
			continue
		}
		if _, ok := seen[d.URL.Cleaned]; ok {
			continue
		}
		seen[d.URL.Cleaned] = struct{}{}
		out = append(out, d.URL.Cleaned)
	}
	return out
}
