// Package provider defines the LLM provider interface and its implementations.
package provider

import (
	"context"
	"errors"
	"strings"
)

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request.
type Request struct {
	Messages []Message
}

// Message represents a chat message in OpenAI format (internal canonical format).
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content,omitempty"`
}

// Response represents a chat completion response.
type Response struct {
	Content      string // final text response
	FinishReason string
	Usage        Usage
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrEmptyCompletion is returned when a provider answers without text.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// Text sends a single-turn prompt and returns the trimmed completion.
func Text(ctx context.Context, p Provider, systemPrompt, prompt string) (string, error) {
	if p == nil {
		return "", errors.New("provider is nil")
	}

	msgs := make([]Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, SystemMessage(systemPrompt))
	}
	msgs = append(msgs, UserMessage(prompt))

	resp, err := p.Chat(ctx, &Request{Messages: msgs})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
