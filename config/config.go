// Package config handles configuration loading and saving.
package config

// Config is the root configuration structure.
type Config struct {
	Summary   SummaryConfig   `yaml:"summary"`
	LLM       LLMConfig       `yaml:"llm"`
	Providers ProvidersConfig `yaml:"providers"`
	Channels  *ChannelsConfig `yaml:"channels,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// SummaryConfig mirrors the option surface of the URL summary feature.
// Pointer fields distinguish "unset" (use the default) from an explicit zero.
type SummaryConfig struct {
	Enabled              *bool    `yaml:"enable_summary,omitempty"`
	Prefix               *string  `yaml:"summary_prefix,omitempty"`
	EnableLLMPostprocess bool     `yaml:"enable_llm_postprocess"`
	LLMPromptTemplate    string   `yaml:"llm_prompt_template,omitempty"` // must contain {summary}
	Provider             string   `yaml:"provider,omitempty"`            // empty = llm.provider
	Timeout              int      `yaml:"timeout,omitempty"`             // seconds, per attempt
	MaxRetries           *int     `yaml:"max_retries,omitempty"`
	BlacklistGroups      []string `yaml:"blacklist_groups"`
	BlacklistKeywords    []string `yaml:"blacklist_keywords"`
	TriggerKeywords      []string `yaml:"trigger_keywords"`
	ServiceURL           string   `yaml:"service_url,omitempty"`
	MaxConcurrency       int      `yaml:"max_concurrency,omitempty"`
}

// LLMConfig selects the default provider used for post-processing.
type LLMConfig struct {
	Provider    string  `yaml:"provider,omitempty"`    // deepseek, openrouter, anthropic, moonshot-cn, moonshot-global
	ModelType   string  `yaml:"modelType,omitempty"`   // deepseek-chat, claude-sonnet-4-5, ...
	ModelName   string  `yaml:"modelName,omitempty"`   // optional, defaults to modelType
	MaxTokens   int     `yaml:"maxTokens,omitempty"`   // defaults to 2048
	Temperature float64 `yaml:"temperature,omitempty"` // defaults to 0.7
}

// ProvidersConfig contains provider API configurations.
type ProvidersConfig struct {
	OpenRouter     *ProviderConfig `yaml:"openrouter,omitempty"`
	Anthropic      *ProviderConfig `yaml:"anthropic,omitempty"`
	DeepSeek       *ProviderConfig `yaml:"deepseek,omitempty"`
	MoonshotCN     *ProviderConfig `yaml:"moonshotCN,omitempty"`
	MoonshotGlobal *ProviderConfig `yaml:"moonshotGlobal,omitempty"`
}

// ProviderConfig contains API credentials for a provider.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	APIBase string `yaml:"apiBase,omitempty"` // optional custom base URL
}

// ChannelsConfig contains chat channel settings.
type ChannelsConfig struct {
	Telegram *TelegramChannelConfig `yaml:"telegram,omitempty"`
	OneBot   *OneBotChannelConfig   `yaml:"onebot,omitempty"`
}

// TelegramChannelConfig holds Telegram bot settings.
type TelegramChannelConfig struct {
	Token      string  `yaml:"token,omitempty"`
	AllowedIDs []int64 `yaml:"allowedIds,omitempty"` // empty = all groups
}

// OneBotChannelConfig holds OneBot v11 forward-websocket settings.
type OneBotChannelConfig struct {
	WSURL             string `yaml:"wsUrl,omitempty"`
	AccessToken       string `yaml:"accessToken,omitempty"`
	ReconnectInterval int    `yaml:"reconnectInterval,omitempty"` // seconds, 0 = default
}

// LoggingConfig controls the logging sink.
type LoggingConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Level   string `yaml:"level,omitempty"`
	Stdout  bool   `yaml:"stdout,omitempty"`
	File    string `yaml:"file,omitempty"`
}
