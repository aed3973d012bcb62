package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
)

const (
	anthropicAPIBase = "https://api.anthropic.com"
)

func init() {
	RegisterProvider("anthropic", ProviderRegistration{
		Models:  []string{"claude-sonnet-4-5", "claude-haiku-4-5", "claude-opus-4-6"},
		EnvKey:  "ANTHROPIC_API_KEY",
		EnvBase: "ANTHROPIC_API_BASE",
		Constructor: func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider {
			return newAnthropicProvider(apiKey, apiBase, modelType, modelName, maxTokens, temperature)
		},
	})
}

// AnthropicProvider implements the Provider interface for Anthropic.
type AnthropicProvider struct {
	apiBase     string
	modelName   string
	modelType   string
	maxTokens   int
	temperature float64
	client      anthropic.Client
}

func newAnthropicProvider(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) *AnthropicProvider {
	if modelName == "" {
		modelName = modelType
	}

	baseURL := normalizeSDKBaseURL(apiBase, anthropicAPIBase, "/v1/messages")
	client := anthropic.NewClient(
		aoption.WithAPIKey(apiKey),
		aoption.WithBaseURL(baseURL),
		aoption.WithMaxRetries(runtimecfg.ProviderSDKMaxRetries),
	)

	return &AnthropicProvider{
		apiBase:     baseURL,
		modelName:   modelName,
		modelType:   modelType,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      client,
	}
}

// Anthropic takes the system prompt out of band; consecutive turns are kept.
func toAnthropicMessages(messages []Message) (string, []anthropic.MessageParam, error) {
	var systemPrompt string
	msgList := make([]anthropic.MessageParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case "system":
			systemPrompt = m.Content
		case "user":
			msgList = append(msgList, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case "assistant":
			if m.Content != "" {
				msgList = append(msgList, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			}
		default:
			return "", nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return systemPrompt, msgList, nil
}

// Chat sends a chat completion request to Anthropic.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	systemPrompt, messages, err := toAnthropicMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	logger.Debug(
		"llm request",
		"provider", "anthropic",
		"modelType", p.modelType,
		"modelName", p.modelName,
		"inputChars", inputChars(req.Messages),
	)

	maxTokens := p.maxTokens
	if maxTokens <= 0 {
		maxTokens = runtimecfg.AnthropicFallbackMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelName),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if p.temperature != 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	messageResp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var textParts []string
	for _, block := range messageResp.Content {
		if block.Type == "text" && block.Text != "" {
			textParts = append(textParts, block.Text)
		}
	}

	content := strings.Join(textParts, "\n")
	logger.Info(
		"llm response",
		"provider", "anthropic",
		"modelName", p.modelName,
		"finishReason", messageResp.StopReason,
		"promptTokens", messageResp.Usage.InputTokens,
		"completionTokens", messageResp.Usage.OutputTokens,
		"outputChars", len(content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content:      content,
		FinishReason: string(messageResp.StopReason),
		Usage: Usage{
			PromptTokens:     int(messageResp.Usage.InputTokens),
			CompletionTokens: int(messageResp.Usage.OutputTokens),
			TotalTokens:      int(messageResp.Usage.InputTokens + messageResp.Usage.OutputTokens),
		},
	}, nil
}
