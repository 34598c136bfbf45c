// Package htmlsanitize strips markup from operator-supplied free text
// (minutes content, titles, descriptions, rejection reasons) before it is
// stored. Minutes are plain text; any HTML is dropped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag from s and returns the remaining text
// unescaped, so "a &amp; b" stays "a & b" in storage.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// Line is PlainText trimmed and collapsed to a single line.
func Line(s string) string {
	return strings.Join(strings.Fields(PlainText(s)), " ")
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
