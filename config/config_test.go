package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesSummaryDefaults(t *testing.T) {
	cfg, err := Parse([]byte("llm:\n  provider: anthropic\n"))
	require.NoError(t, err)

	assert.True(t, cfg.SummaryEnabled())
	assert.Equal(t, "📝内容摘要：", cfg.SummaryPrefix())
	assert.False(t, cfg.Summary.EnableLLMPostprocess)
	assert.Equal(t, 30*time.Second, cfg.SummaryTimeout())
	assert.Equal(t, 2, cfg.SummaryMaxRetries())
	assert.Equal(t, []string{"baidu.com"}, cfg.Summary.BlacklistKeywords)
	assert.Empty(t, cfg.Summary.BlacklistGroups)
	assert.Empty(t, cfg.Summary.TriggerKeywords)
	assert.Equal(t, "anthropic", cfg.GetProvider())
	assert.NoError(t, cfg.Validate())
}

func TestParseKeepsExplicitZeroValues(t *testing.T) {
	data := []byte(`
summary:
  enable_summary: false
  summary_prefix: ""
  max_retries: 0
  blacklist_keywords: []
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.False(t, cfg.SummaryEnabled())
	assert.Equal(t, "", cfg.SummaryPrefix())
	assert.Equal(t, 0, cfg.SummaryMaxRetries())
	assert.NotNil(t, cfg.Summary.BlacklistKeywords)
	assert.Empty(t, cfg.Summary.BlacklistKeywords)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "negative timeout", yaml: "summary:\n  timeout: -1\n", field: "summary.timeout"},
		{name: "negative retries", yaml: "summary:\n  max_retries: -2\n", field: "summary.max_retries"},
		{name: "relative service url", yaml: "summary:\n  service_url: /upload-link\n", field: "summary.service_url"},
		{name: "empty group id", yaml: "summary:\n  blacklist_groups: [\"\"]\n", field: "summary.blacklist_groups"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNilConfigGetters(t *testing.T) {
	var cfg *Config
	assert.True(t, cfg.SummaryEnabled())
	assert.Equal(t, 2, cfg.SummaryMaxRetries())
	assert.Equal(t, "", cfg.GetProvider())
	assert.Error(t, cfg.Validate())
}

func TestSaveAndLoadRoundTripInConfigDir(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)
	t.Cleanup(func() { SetConfigDir("") })

	cfg := DefaultConfig()
	cfg.Summary.TriggerKeywords = []string{"总结"}
	cfg.SetProviderAPIKey("sk-test")
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"总结"}, loaded.Summary.TriggerKeywords)
	require.NotNil(t, loaded.Providers.DeepSeek)
	assert.Equal(t, "sk-test", loaded.Providers.DeepSeek.APIKey)
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urlsummarizer init")
}
