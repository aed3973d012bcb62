package runtimecfg

import "time"

const (
	SummaryDefaultEnabled       = true
	SummaryDefaultPrefix        = "📝内容摘要："
	SummaryDefaultTimeout       = 30
	SummaryDefaultMaxRetries    = 2
	SummaryDefaultServiceURL    = "https://pjfuothbq9.execute-api.us-east-1.amazonaws.com/upload-link"
	SummaryDefaultWebsite       = "article-summarizer"
	SummaryDefaultConcurrency   = 4
	SummaryRetryBaseDelay       = 1 * time.Second
	SummaryRetryMaxDelay        = 4 * time.Second
	SummaryErrorBodyMaxBytes    = 1024
	SummaryResponseMaxReadBytes = 1 << 20
)

// SummaryDefaultBlacklistKeywords is copied into fresh configs.
var SummaryDefaultBlacklistKeywords = []string{"baidu.com"}

// SummaryKnownPrefixes mark replies this bot (or an older build of it) has
// already produced.
var SummaryKnownPrefixes = []string{"📝内容摘要：", "内容摘要："}

const (
	LLMDefaultProvider    = "deepseek"
	LLMDefaultModelType   = "deepseek-chat"
	LLMDefaultMaxTokens   = 2048
	LLMDefaultTemperature = 0.7
)

const (
	CLIChannelMessageBufferSize      = 10
	TelegramChannelMessageBufferSize = 100
	TelegramUpdateTimeoutSeconds     = 30
	TelegramMaxMessageLength         = 4096
	OneBotChannelMessageBufferSize   = 100
	OneBotHandshakeTimeout           = 10 * time.Second
	OneBotMinReconnectInterval       = 5 * time.Second
	OneBotDefaultReconnectSeconds    = 10
	OneBotMaxMessageLength           = 4500
)

const (
	// DispatchGracePeriod is added on top of the worst-case fetch time when
	// bounding a single message's handling.
	DispatchGracePeriod = 15 * time.Second
)

const (
	ProviderSDKMaxRetries      = 2
	AnthropicFallbackMaxTokens = 1024
)
