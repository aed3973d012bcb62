package config

import (
	"os"
	"strings"
	"time"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
)

// SummaryEnabled reports the enable_summary switch.
func (c *Config) SummaryEnabled() bool {
	if c == nil || c.Summary.Enabled == nil {
		return runtimecfg.SummaryDefaultEnabled
	}
	return *c.Summary.Enabled
}

// SummaryPrefix returns the reply prefix line; it may be empty.
func (c *Config) SummaryPrefix() string {
	if c == nil || c.Summary.Prefix == nil {
		return runtimecfg.SummaryDefaultPrefix
	}
	return *c.Summary.Prefix
}

// SummaryTimeout returns the per-attempt timeout.
func (c *Config) SummaryTimeout() time.Duration {
	if c == nil || c.Summary.Timeout == 0 {
		return time.Duration(runtimecfg.SummaryDefaultTimeout) * time.Second
	}
	return time.Duration(c.Summary.Timeout) * time.Second
}

// SummaryMaxRetries returns how many retries follow the first attempt.
func (c *Config) SummaryMaxRetries() int {
	if c == nil || c.Summary.MaxRetries == nil {
		return runtimecfg.SummaryDefaultMaxRetries
	}
	return *c.Summary.MaxRetries
}

// SummaryServiceURL returns the remote summarization endpoint.
func (c *Config) SummaryServiceURL() string {
	if c == nil || strings.TrimSpace(c.Summary.ServiceURL) == "" {
		return runtimecfg.SummaryDefaultServiceURL
	}
	return strings.TrimSpace(c.Summary.ServiceURL)
}

// SummaryMaxConcurrency bounds parallel URL processing within one message.
func (c *Config) SummaryMaxConcurrency() int {
	if c == nil || c.Summary.MaxConcurrency <= 0 {
		return runtimecfg.SummaryDefaultConcurrency
	}
	return c.Summary.MaxConcurrency
}

// GetProvider returns the configured default LLM provider.
func (c *Config) GetProvider() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.LLM.Provider)
}

// GetModelType returns the configured default model type.
func (c *Config) GetModelType() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.LLM.ModelType)
}

// GetModelName returns the effective model name (modelName or modelType).
func (c *Config) GetModelName() string {
	if c == nil {
		return ""
	}
	if v := strings.TrimSpace(c.LLM.ModelName); v != "" {
		return v
	}
	return c.GetModelType()
}

// GetMaxTokens returns the configured max tokens for provider requests.
func (c *Config) GetMaxTokens() int {
	if c == nil {
		return 0
	}
	return c.LLM.MaxTokens
}

// GetTemperature returns the configured sampling temperature.
func (c *Config) GetTemperature() float64 {
	if c == nil {
		return 0
	}
	return c.LLM.Temperature
}

// ProviderConfigFor returns the credentials block for a provider name.
func (c *Config) ProviderConfigFor(providerName string) *ProviderConfig {
	if c == nil {
		return nil
	}

	switch providerName {
	case "openrouter":
		return c.Providers.OpenRouter
	case "anthropic":
		return c.Providers.Anthropic
	case "deepseek":
		return c.Providers.DeepSeek
	case "moonshot-cn":
		return c.Providers.MoonshotCN
	case "moonshot-global":
		return c.Providers.MoonshotGlobal
	}
	return nil
}

// SetProviderAPIKey stores an API key for the default provider.
func (c *Config) SetProviderAPIKey(apiKey string) {
	pc := &ProviderConfig{APIKey: strings.TrimSpace(apiKey)}
	if existing := c.ProviderConfigFor(c.GetProvider()); existing != nil {
		pc.APIBase = existing.APIBase
	}
	switch c.GetProvider() {
	case "openrouter":
		c.Providers.OpenRouter = pc
	case "anthropic":
		c.Providers.Anthropic = pc
	case "deepseek":
		c.Providers.DeepSeek = pc
	case "moonshot-cn":
		c.Providers.MoonshotCN = pc
	case "moonshot-global":
		c.Providers.MoonshotGlobal = pc
	}
}

// GetTelegramToken returns the bot token; TELEGRAM_BOT_TOKEN overrides config.
func (c *Config) GetTelegramToken() string {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		return v
	}
	if c == nil || c.Channels == nil || c.Channels.Telegram == nil {
		return ""
	}
	return strings.TrimSpace(c.Channels.Telegram.Token)
}

// GetOneBotURL returns the OneBot websocket URL; ONEBOT_WS_URL overrides config.
func (c *Config) GetOneBotURL() string {
	if v := strings.TrimSpace(os.Getenv("ONEBOT_WS_URL")); v != "" {
		return v
	}
	if c == nil || c.Channels == nil || c.Channels.OneBot == nil {
		return ""
	}
	return strings.TrimSpace(c.Channels.OneBot.WSURL)
}
