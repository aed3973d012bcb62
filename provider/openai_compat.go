package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	openRouterAPIBase     = "https://openrouter.ai/api/v1"
	deepSeekAPIBase       = "https://api.deepseek.com"
	moonshotCNAPIBase     = "https://api.moonshot.cn/v1"
	moonshotGlobalAPIBase = "https://api.moonshot.ai/v1"
)

func init() {
	RegisterProvider("openrouter", ProviderRegistration{
		Models:  []string{"moonshotai/kimi-k2.5", "deepseek/deepseek-chat", "openai/gpt-4o-mini"},
		EnvKey:  "OPENROUTER_API_KEY",
		EnvBase: "OPENROUTER_API_BASE",
		Constructor: func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider {
			return newOpenAICompatProvider("openrouter", apiKey, apiBase, openRouterAPIBase, modelType, modelName, maxTokens, temperature,
				oaioption.WithHeader("HTTP-Referer", "https://github.com/linanwx/urlsummarizer"),
				oaioption.WithHeader("X-Title", "urlsummarizer"),
			)
		},
	})

	RegisterProvider("deepseek", ProviderRegistration{
		Models:  []string{"deepseek-chat", "deepseek-reasoner"},
		EnvKey:  "DEEPSEEK_API_KEY",
		EnvBase: "DEEPSEEK_API_BASE",
		Constructor: func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider {
			return newOpenAICompatProvider("deepseek", apiKey, apiBase, deepSeekAPIBase, modelType, modelName, maxTokens, temperature)
		},
	})

	RegisterProvider("moonshot-cn", ProviderRegistration{
		Models:  []string{"kimi-k2.5"},
		EnvKey:  "MOONSHOT_API_KEY",
		EnvBase: "MOONSHOT_API_BASE",
		Constructor: func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider {
			return newOpenAICompatProvider("moonshot-cn", apiKey, apiBase, moonshotCNAPIBase, modelType, modelName, maxTokens, temperature)
		},
	})

	RegisterProvider("moonshot-global", ProviderRegistration{
		Models:  []string{"kimi-k2.5"},
		EnvKey:  "MOONSHOT_GLOBAL_API_KEY",
		EnvBase: "MOONSHOT_GLOBAL_API_BASE",
		Constructor: func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider {
			return newOpenAICompatProvider("moonshot-global", apiKey, apiBase, moonshotGlobalAPIBase, modelType, modelName, maxTokens, temperature)
		},
	})
}

// OpenAICompatProvider implements Provider for any chat-completions endpoint
// speaking the OpenAI wire format.
type OpenAICompatProvider struct {
	name        string
	apiBase     string
	modelName   string
	modelType   string
	maxTokens   int
	temperature float64
	client      openai.Client
}

func newOpenAICompatProvider(name, apiKey, apiBase, defaultBase, modelType, modelName string, maxTokens int, temperature float64, extra ...oaioption.RequestOption) *OpenAICompatProvider {
	if modelName == "" {
		modelName = modelType
	}

	baseURL := normalizeSDKBaseURL(apiBase, defaultBase, "/chat/completions")
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithMaxRetries(runtimecfg.ProviderSDKMaxRetries),
	}
	opts = append(opts, extra...)

	return &OpenAICompatProvider{
		name:        name,
		apiBase:     baseURL,
		modelName:   modelName,
		modelType:   modelType,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      openai.NewClient(opts...),
	}
}

func inputChars(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Role)
		total += len(m.Content)
	}
	return total
}

func toOpenAIChatMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			result = append(result, openai.SystemMessage(m.Content))
		case "user":
			result = append(result, openai.UserMessage(m.Content))
		case "assistant":
			result = append(result, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return result, nil
}

// Chat sends a chat completion request.
func (p *OpenAICompatProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages, err := toOpenAIChatMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	logger.Debug(
		"llm request",
		"provider", p.name,
		"modelType", p.modelType,
		"modelName", p.modelName,
		"inputChars", inputChars(req.Messages),
	)

	chatReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.modelName),
		Messages: messages,
	}
	if p.maxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if p.temperature != 0 && p.modelType != "deepseek-reasoner" {
		chatReq.Temperature = openai.Float(p.temperature)
	}

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in response", p.name)
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"llm response",
		"provider", p.name,
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}
