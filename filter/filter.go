// Package filter decides whether a candidate URL qualifies for summarization.
package filter

import (
	"strings"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/extract"
)

// Reason explains a Decision.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonGroupBlacklisted
	ReasonKeywordBlacklisted
	ReasonNoTriggerMatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonGroupBlacklisted:
		return "group_blacklisted"
	case ReasonKeywordBlacklisted:
		return "keyword_blacklisted"
	case ReasonNoTriggerMatch:
		return "no_trigger_match"
	default:
		return "unknown"
	}
}

// Decision is computed per candidate and never stored.
type Decision struct {
	URL     extract.Candidate
	Allowed bool
	Reason  Reason
}

// Policy is the normalized, read-only filter configuration. Keywords are
// lower-cased once so Decide stays allocation-light.
type Policy struct {
	groups   map[string]struct{}
	keywords []string
	triggers []string
}

// NewPolicy normalizes the three lists; blank entries are dropped.
func NewPolicy(blacklistGroups, blacklistKeywords, triggerKeywords []string) Policy {
	p := Policy{groups: make(map[string]struct{}, len(blacklistGroups))}
	for _, g := range blacklistGroups {
		if g = strings.TrimSpace(g); g != "" {
			p.groups[g] = struct{}{}
		}
	}
	p.keywords = normalizeKeywords(blacklistKeywords)
	p.triggers = normalizeKeywords(triggerKeywords)
	return p
}

// PolicyFromConfig builds a Policy from the summary section.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return NewPolicy(nil, nil, nil)
	}
	return NewPolicy(cfg.Summary.BlacklistGroups, cfg.Summary.BlacklistKeywords, cfg.Summary.TriggerKeywords)
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Decide applies, in order, the group blacklist, the URL keyword blacklist and
// the message trigger keywords. The first rule that rejects wins.
func Decide(c extract.Candidate, groupID, text string, p Policy) Decision {
	if _, ok := p.groups[strings.TrimSpace(groupID)]; ok {
		return Decision{URL: c, Reason: ReasonGroupBlacklisted}
	}

	if containsAny(strings.ToLower(c.Cleaned), p.keywords) {
		return Decision{URL: c, Reason: ReasonKeywordBlacklisted}
	}

	if len(p.triggers) > 0 && !containsAny(strings.ToLower(text), p.triggers) {
		return Decision{URL: c, Reason: ReasonNoTriggerMatch}
	}

	return Decision{URL: c, Allowed: true, Reason: ReasonNone}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
