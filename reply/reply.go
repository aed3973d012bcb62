// Package reply formats the outbound summary message.
package reply

import (
	"errors"
	"strings"
)

// ErrEmptyBody is returned when there is no summary text to send.
var ErrEmptyBody = errors.New("reply body is empty")

// Reply is the only value handed back to the chat host.
type Reply struct {
	Prefix string
	URL    string
	Body   string
}

// Compose builds a reply. A blank body is a failure, not an empty success.
func Compose(prefix, url, body string) (Reply, error) {
	if strings.TrimSpace(body) == "" {
		return Reply{}, ErrEmptyBody
	}
	return Reply{Prefix: prefix, URL: url, Body: body}, nil
}

// String renders prefix, URL and body on separate lines. An empty prefix
// omits its line.
func (r Reply) String() string {
	var b strings.Builder
	if r.Prefix != "" {
		b.WriteString(r.Prefix)
		b.WriteByte('\n')
	}
	b.WriteString(r.URL)
	b.WriteByte('\n')
	b.WriteString(r.Body)
	return b.String()
}
