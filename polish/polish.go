// Package polish rewrites raw summaries into chat-friendly text through an
// LLM provider. Failures never propagate: the raw summary is returned.
package polish

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/provider"
)

// Placeholder is substituted with the raw summary in a prompt template.
const Placeholder = "{summary}"

// DefaultPromptTemplate is used when llm_prompt_template is empty.
const DefaultPromptTemplate = "请将以下摘要润色成自然的中文群聊用语，保持原意：\n\n" + Placeholder

const systemPrompt = "你是一位善于润色文本的助手，保持内容完整准确。"

// ErrMissingPlaceholder is returned by Render for templates without {summary}.
var ErrMissingPlaceholder = errors.New("prompt template must contain " + Placeholder)

// Render substitutes every placeholder in template with summary.
func Render(template, summary string) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	if !strings.Contains(template, Placeholder) {
		return "", ErrMissingPlaceholder
	}
	return strings.ReplaceAll(template, Placeholder, summary), nil
}

// Resolver looks up a provider by name. An empty name selects the default.
type Resolver interface {
	Resolve(name string) (provider.Provider, error)
}

// Polisher is the optional post-processing stage.
type Polisher struct {
	enabled  bool
	template string
	provider string
	timeout  time.Duration
	resolver Resolver
}

// New builds a polisher from the summary section of cfg. A nil resolver
// makes every call fall back.
func New(cfg *config.Config, resolver Resolver) *Polisher {
	p := &Polisher{resolver: resolver, timeout: cfg.SummaryTimeout()}
	if cfg != nil {
		p.enabled = cfg.Summary.EnableLLMPostprocess
		p.template = cfg.Summary.LLMPromptTemplate
		p.provider = strings.TrimSpace(cfg.Summary.Provider)
	}
	return p
}

// Enabled reports whether Polish contacts a provider at all.
func (p *Polisher) Enabled() bool {
	return p != nil && p.enabled
}

// Polish returns the provider's rewrite of summary, or summary itself when
// disabled or on any failure.
func (p *Polisher) Polish(ctx context.Context, summary string) string {
	if !p.Enabled() {
		return summary
	}

	prompt, err := Render(p.template, summary)
	if err != nil {
		p.fallback("render", err)
		return summary
	}
	if p.resolver == nil {
		p.fallback("resolve", errors.New("no provider resolver configured"))
		return summary
	}
	prov, err := p.resolver.Resolve(p.provider)
	if err != nil {
		p.fallback("resolve", err)
		return summary
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := provider.Text(callCtx, prov, systemPrompt, prompt)
	if err != nil {
		p.fallback("chat", err)
		return summary
	}
	logger.Debug("llm postprocess done", "provider", p.providerLabel(), "inputChars", len(summary), "outputChars", len(text))
	return text
}

func (p *Polisher) fallback(reason string, err error) {
	logger.Warn("llm postprocess fallback", "reason", reason, "provider", p.providerLabel(), "err", err)
}

func (p *Polisher) providerLabel() string {
	if p.provider == "" {
		return "default"
	}
	return p.provider
}
