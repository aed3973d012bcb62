package health

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectStatus(t *testing.T) {
	assert.Equal(t, "healthy", Collect(Options{}).Status)
	assert.Equal(t, "healthy", Collect(Options{Summary: &SummaryInfo{Enabled: true}}).Status)
	assert.Equal(t, "degraded", Collect(Options{Summary: &SummaryInfo{Enabled: false}}).Status)
	assert.Equal(t, "degraded", Collect(Options{Summary: &SummaryInfo{Enabled: true, ConfigError: "summary.timeout: bad"}}).Status)
}

func TestFormatAndJSON(t *testing.T) {
	s := Collect(Options{Summary: &SummaryInfo{
		Enabled:    true,
		ServiceURL: "https://example.com/upload-link",
		Timeout:    "30s",
		MaxRetries: 2,
		Channels:   []string{"onebot", "telegram"},
	}})

	text := FormatText(s)
	assert.Contains(t, text, "Status: healthy")
	assert.Contains(t, text, "Max Retries: 2")
	assert.Contains(t, text, "Channels: onebot, telegram")

	raw, err := s.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "healthy", decoded["status"])
	assert.Equal(t, "https://example.com/upload-link", decoded["summary"].(map[string]any)["serviceUrl"])
}
