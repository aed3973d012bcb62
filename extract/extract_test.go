package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanedOf(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Cleaned)
	}
	return out
}

func TestAllCleansWrappers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "plain", text: "see this https://example.com/a", want: []string{"https://example.com/a"}},
		{name: "ascii parens", text: "(https://example.com/a)", want: []string{"https://example.com/a"}},
		{name: "full width parens", text: "看看（https://example.com/a）", want: []string{"https://example.com/a"}},
		{name: "cjk full stop", text: "链接：https://example.com/a。后面还有字", want: []string{"https://example.com/a"}},
		{name: "cjk comma after host", text: "https://example.com，不错", want: []string{"https://example.com"}},
		{name: "trailing period", text: "read https://example.com/a.", want: []string{"https://example.com/a"}},
		{name: "quotes", text: `he said "https://example.com/a"`, want: []string{"https://example.com/a"}},
		{name: "curly quotes", text: "“https://example.com/a”", want: []string{"https://example.com/a"}},
		{name: "book title marks", text: "《https://example.com/a》", want: []string{"https://example.com/a"}},
		{name: "markdown link", text: "[doc](https://example.com/a)", want: []string{"https://example.com/a"}},
		{name: "port and query", text: "http://example.com:8080/p?q=1&r=2#frag!", want: []string{"http://example.com:8080/p?q=1&r=2#frag"}},
		{name: "upper case scheme", text: "HTTPS://Example.COM/x", want: []string{"HTTPS://Example.COM/x"}},
		{name: "multiple in order", text: "a https://a.com/1 b http://b.org/2", want: []string{"https://a.com/1", "http://b.org/2"}},
		{name: "glued to word", text: "xhttps://example.com/a", want: []string{}},
		{name: "scheme only", text: "http:// nothing", want: []string{}},
		{name: "no dot host", text: "https://localhost/a", want: []string{}},
		{name: "no url", text: "hello world", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanedOf(All(tc.text)))
		})
	}
}

func TestExtractKeepsRawMatch(t *testing.T) {
	got := All("(https://example.com/a)")
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/a)", got[0].Raw)
	assert.Equal(t, "https://example.com/a", got[0].Cleaned)
}

func TestExtractIsRestartable(t *testing.T) {
	seq := Extract("https://a.com/1 https://b.com/2")

	var first, second []string
	for c := range seq {
		first = append(first, c.Cleaned)
	}
	for c := range seq {
		second = append(second, c.Cleaned)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestExtractStopsWhenConsumerBreaks(t *testing.T) {
	n := 0
	for range Extract("https://a.com/1 https://b.com/2 https://c.com/3") {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "https://a.com/x", Clean("【(https://a.com/x)】。"))
	assert.Equal(t, "", Clean("。，"))
}

func assertNoWrapperEnds(t *testing.T, text string) {
	t.Helper()
	for c := range Extract(text) {
		first, _ := utf8.DecodeRuneInString(c.Cleaned)
		last, _ := utf8.DecodeLastRuneInString(c.Cleaned)
		if IsWrapper(first) || IsWrapper(last) {
			t.Fatalf("cleaned %q from %q keeps a wrapper character", c.Cleaned, text)
		}
		if !strings.HasPrefix(strings.ToLower(c.Cleaned), "http") {
			t.Fatalf("cleaned %q does not start with a scheme", c.Cleaned)
		}
	}
}

func TestCleanedNeverEndsWithWrapper(t *testing.T) {
	wrappers := []string{"", "(", ")", "（", "）", "。", "，", "！", "“", "”", "'", "\"", "【", "】", "《", "》", ".", "?", "!"}
	paths := []string{"", "/", "/a", "/a_(b)", "/a?x=1", "/中文"}
	for _, l := range wrappers {
		for _, r := range wrappers {
			for _, p := range paths {
				for _, r2 := range wrappers {
					assertNoWrapperEnds(t, "msg "+l+"https://example.com"+p+r+r2+" tail")
				}
			}
		}
	}
}

func FuzzExtract(f *testing.F) {
	f.Add("see this https://example.com/a")
	f.Add("（https://example.com/a）。")
	f.Add("[x](http://a.b/c)) “https://d.e/f”")
	f.Fuzz(func(t *testing.T, text string) {
		assertNoWrapperEnds(t, text)
	})
}
