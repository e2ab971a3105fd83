// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Thread and comment bodies are plain text: every tag is stripped. Profile
// bios may keep light formatting and safe links.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	bio    = newBioPolicy()
)

func newBioPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "s", "ul", "ol", "li", "blockquote", "code")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// Text strips all markup and returns plain text. Entities produced by the
// sanitizer are decoded again because the result is stored as text, not HTML.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Bio keeps a small formatting subset and drops everything else.
func Bio(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bio.Sanitize(s))
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
