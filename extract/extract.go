// Package extract finds http(s) URLs in chat text and strips the punctuation
// people wrap them in.
package extract

import (
	"iter"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Candidate is a URL-like substring of a message.
type Candidate struct {
	Raw     string // as matched in the text
	Cleaned string // wrapper characters removed
}

var urlPattern = regexp.MustCompile(
	`(?i)https?://` +
		`(?:[a-z0-9-]+\.)+[a-z0-9-]+` + // host
		`(?::\d{2,5})?` + // port
		`(?:/[^\s<>"\]\x{2018}-\x{201F}\x{3000}-\x{303F}\x{FF00}-\x{FFEF}]*)?`, // path; stops at ], curly quotes, CJK punctuation
)

// urlChars may not directly precede a match; "xhttp://a.b" is not a URL.
const urlChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._~%!$&'*+,;=:@/?#-"

// wrapperChars are removed from both ends of a match.
const wrapperChars = `.,;:!?()[]{}<>'"，。！？：；、（）【】《》〈〉「」『』‘’“”`

// Extract returns the candidates in text in order of first occurrence. Each
// range over the result rescans text.
func Extract(text string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
			if loc[0] > 0 {
				prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
				if strings.ContainsRune(urlChars, prev) {
					continue
				}
			}

			raw := text[loc[0]:loc[1]]
			cleaned := Clean(raw)
			if !valid(cleaned) {
				continue
			}
			if !yield(Candidate{Raw: raw, Cleaned: cleaned}) {
				return
			}
		}
	}
}

// All collects Extract(text).
func All(text string) []Candidate {
	var out []Candidate
	for c := range Extract(text) {
		out = append(out, c)
	}
	return out
}

// Clean strips wrapper and sentence punctuation from both ends of s.
func Clean(s string) string {
	return strings.Trim(s, wrapperChars)
}

// IsWrapper reports whether r is stripped from the ends of a URL.
func IsWrapper(r rune) bool {
	return strings.ContainsRune(wrapperChars, r)
}

func valid(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
