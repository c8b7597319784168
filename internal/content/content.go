// Package content cleans rich-text discussion messages.
package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()

	blockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|blockquote|pre)>`)
)

// Sanitize strips scripts, event handlers and unsafe links from a rich-text
// message while keeping formatting.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// PlainText reduces rich text to the characters a reader sees, with block
// ends turned into line breaks so they still terminate mentions.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = blockBreak.ReplaceAllString(s, "\n")
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsBlank reports whether s has no visible text.
func IsBlank(s string) bool {
	return PlainText(s) == ""
}
