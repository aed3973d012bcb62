package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeLayout(t *testing.T) {
	r, err := Compose("📝内容摘要：", "https://example.com/a", "sum1")
	require.NoError(t, err)
	assert.Equal(t, "📝内容摘要：\nhttps://example.com/a\nsum1", r.String())
}

func TestComposeEmptyPrefixDropsLine(t *testing.T) {
	r, err := Compose("", "https://example.com/a", "sum1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a\nsum1", r.String())
}

func TestComposeRejectsBlankBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := Compose("p", "https://example.com", body)
		assert.ErrorIs(t, err, ErrEmptyBody)
	}
}
