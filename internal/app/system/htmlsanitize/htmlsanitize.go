// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce sync.Once
	ugc     *bluemonday.Policy

	strictOnce sync.Once
	strict     *bluemonday.Policy
)

// richPolicy allows the formatting a card description or comment may carry.
// Links get rel="nofollow noopener" and open in a new tab.
func richPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		ugc = p
	})
	return ugc
}

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize removes scripts, event handlers, and unsafe URLs from user
// supplied rich text while keeping basic formatting.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(richPolicy().Sanitize(s))
}

// StripTags removes every tag from s. Used for titles and names, which are
// rendered as plain text. Input without markup is only trimmed.
func StripTags(s string) string {
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strictPolicy().Sanitize(s))
}

// IsPlainText reports whether s contains no tag-like sequences.
func IsPlainText(s string) bool {
	i := strings.IndexByte(s, '<')
	return i < 0 || !strings.Contains(s[i:], ">")
}

// Clean returns plain text unchanged (trimmed) and runs anything that looks
// like markup through Sanitize. Plain text is stored as typed so that
// apostrophes and ampersands are not entity-encoded.
func Clean(s string) string {
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	return Sanitize(s)
}
