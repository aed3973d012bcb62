package config

import (
	"path/filepath"

	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	enabled := runtimecfg.SummaryDefaultEnabled
	prefix := runtimecfg.SummaryDefaultPrefix
	retries := runtimecfg.SummaryDefaultMaxRetries
	return &Config{
		Summary: SummaryConfig{
			Enabled:           &enabled,
			Prefix:            &prefix,
			Timeout:           runtimecfg.SummaryDefaultTimeout,
			MaxRetries:        &retries,
			BlacklistGroups:   []string{},
			BlacklistKeywords: append([]string(nil), runtimecfg.SummaryDefaultBlacklistKeywords...),
			TriggerKeywords:   []string{},
			ServiceURL:        runtimecfg.SummaryDefaultServiceURL,
			MaxConcurrency:    runtimecfg.SummaryDefaultConcurrency,
		},
		LLM: LLMConfig{
			Provider:    runtimecfg.LLMDefaultProvider,
			ModelType:   runtimecfg.LLMDefaultModelType,
			MaxTokens:   runtimecfg.LLMDefaultMaxTokens,
			Temperature: runtimecfg.LLMDefaultTemperature,
		},
		Providers: ProvidersConfig{
			DeepSeek: &ProviderConfig{
				APIKey: "",
			},
		},
		Channels: &ChannelsConfig{
			Telegram: &TelegramChannelConfig{
				AllowedIDs: []int64{},
			},
			OneBot: &OneBotChannelConfig{
				ReconnectInterval: runtimecfg.OneBotDefaultReconnectSeconds,
			},
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	dir, err := ConfigDir()
	if err != nil {
		dir = ""
	}
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  true,
		File:    filepath.Join(dir, "logs", "urlsummarizer.log"),
	}
}

func (c *Config) applyDefaults() {
	s := &c.Summary
	if s.Enabled == nil {
		enabled := runtimecfg.SummaryDefaultEnabled
		s.Enabled = &enabled
	}
	if s.Prefix == nil {
		prefix := runtimecfg.SummaryDefaultPrefix
		s.Prefix = &prefix
	}
	if s.Timeout == 0 {
		s.Timeout = runtimecfg.SummaryDefaultTimeout
	}
	if s.MaxRetries == nil {
		retries := runtimecfg.SummaryDefaultMaxRetries
		s.MaxRetries = &retries
	}
	if s.BlacklistGroups == nil {
		s.BlacklistGroups = []string{}
	}
	// A nil list means the key was absent; an explicit [] stays empty.
	if s.BlacklistKeywords == nil {
		s.BlacklistKeywords = append([]string(nil), runtimecfg.SummaryDefaultBlacklistKeywords...)
	}
	if s.TriggerKeywords == nil {
		s.TriggerKeywords = []string{}
	}
	if s.ServiceURL == "" {
		s.ServiceURL = runtimecfg.SummaryDefaultServiceURL
	}
	if s.MaxConcurrency == 0 {
		s.MaxConcurrency = runtimecfg.SummaryDefaultConcurrency
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = runtimecfg.LLMDefaultProvider
	}
	if c.LLM.ModelType == "" {
		c.LLM.ModelType = runtimecfg.LLMDefaultModelType
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = runtimecfg.LLMDefaultMaxTokens
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = runtimecfg.LLMDefaultTemperature
	}

	if c.Channels == nil {
		c.Channels = &ChannelsConfig{}
	}
	if c.Channels.Telegram == nil {
		c.Channels.Telegram = &TelegramChannelConfig{}
	}
	if c.Channels.Telegram.AllowedIDs == nil {
		c.Channels.Telegram.AllowedIDs = []int64{}
	}
	if c.Channels.OneBot == nil {
		c.Channels.OneBot = &OneBotChannelConfig{}
	}
	if c.Channels.OneBot.ReconnectInterval == 0 {
		c.Channels.OneBot.ReconnectInterval = runtimecfg.OneBotDefaultReconnectSeconds
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}

	hasAny := c.Logging.Level != "" || c.Logging.File != "" || c.Logging.Stdout
	if c.Logging.Enabled == nil && hasAny {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.Stdout = def.Stdout
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
