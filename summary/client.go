// Package summary retrieves article summaries from the remote summarization
// service.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/tidwall/gjson"
)

// Summarizer performs a single summary request for url.
type Summarizer interface {
	Summarize(ctx context.Context, url string) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, url string) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

var (
	// ErrEmptySummary is returned when the service answers without text.
	ErrEmptySummary = errors.New("summary service returned empty summary")
	// ErrMalformedResponse is returned when the payload shape is unexpected.
	ErrMalformedResponse = errors.New("summary service returned malformed response")
)

// StatusError reports a non-200 answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("summary service returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the articlesummarizer upload-link endpoint.
type Client struct {
	endpoint string
	website  string
	http     *http.Client
}

var _ Summarizer = (*Client)(nil)

// NewClient creates a client for endpoint. A nil httpClient uses a default
// client without its own timeout; callers bound each call through ctx.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint: endpoint,
		website:  runtimecfg.SummaryDefaultWebsite,
		http:     httpClient,
	}
}

// Summarize posts url to the service and unwraps the nested summary.
func (c *Client) Summarize(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"link":    url,
		"website": c.website,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://articlesummarizer.com")
	req.Header.Set("Referer", "https://articlesummarizer.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, runtimecfg.SummaryErrorBodyMaxBytes))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, runtimecfg.SummaryResponseMaxReadBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseSummary(raw)
}

// parseSummary unwraps {"result":{"body":"{\"summary\":\"...\"}"}}.
func parseSummary(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}

	inner := gjson.GetBytes(raw, "result.body")
	if inner.Type != gjson.String || inner.Str == "" {
		return "", fmt.Errorf("%w: missing result.body", ErrMalformedResponse)
	}
	if !gjson.Valid(inner.Str) {
		return "", fmt.Errorf("%w: result.body is not JSON", ErrMalformedResponse)
	}

	summary := gjson.Get(inner.Str, "summary")
	if summary.Type != gjson.String {
		return "", fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	text := strings.TrimSpace(summary.Str)
	if text == "" {
		return "", ErrEmptySummary
	}
	return text, nil
}
