package summary

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
)

// Result is the outcome of a bounded fetch. Attempts never exceeds
// maxRetries+1; Succeeded=false means no reply may be sent for URL.
type Result struct {
	URL       string
	Text      string
	Succeeded bool
	Attempts  int
	Err       error
}

// Fetcher wraps a Summarizer with a per-attempt timeout and bounded retries.
type Fetcher struct {
	summarizer Summarizer
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBackoff sets the delay before the first retry, doubling up to max.
// A zero base retries immediately.
func WithBackoff(base, max time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = base
		f.maxDelay = max
	}
}

// NewFetcher returns a fetcher making at most maxRetries+1 calls per URL.
func NewFetcher(s Summarizer, timeout time.Duration, maxRetries int, opts ...Option) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if timeout <= 0 {
		timeout = time.Duration(runtimecfg.SummaryDefaultTimeout) * time.Second
	}
	f := &Fetcher{
		summarizer: s,
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  runtimecfg.SummaryRetryBaseDelay,
		maxDelay:   runtimecfg.SummaryRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxDelay < f.baseDelay {
		f.maxDelay = f.baseDelay
	}
	return f
}

// MaxAttempts returns maxRetries+1.
func (f *Fetcher) MaxAttempts() int {
	return f.maxRetries + 1
}

// Fetch asks the service for a summary of url. Cancelling ctx stops the
// current attempt and any further retries.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	var attempts atomic.Int32

	builder := retrypolicy.NewBuilder[string]().
		HandleIf(func(_ string, err error) bool {
			return err != nil && ctx.Err() == nil
		}).
		WithMaxRetries(f.maxRetries)
	if f.baseDelay > 0 {
		builder = builder.WithBackoff(f.baseDelay, f.maxDelay)
	}
	policy := builder.Build()

	text, err := failsafe.With(policy).WithContext(ctx).Get(func() (string, error) {
		n := attempts.Add(1)
		if err := ctx.Err(); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		logger.Debug("summary attempt", "url", url, "attempt", n, "maxAttempts", f.MaxAttempts())
		text, err := f.summarizer.Summarize(attemptCtx, url)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptySummary
		}
		if err != nil {
			logger.Warn("summary attempt failed",
				"url", url,
				"attempt", n,
				"maxAttempts", f.MaxAttempts(),
				"err", err,
			)
			return "", err
		}
		return text, nil
	})

	res := Result{URL: url, Attempts: int(attempts.Load())}
	if err != nil {
		res.Err = err
		return res
	}
	res.Text = text
	res.Succeeded = true
	return res
}
