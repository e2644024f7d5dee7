// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var htmlTag = regexp.MustCompile(`<[^>]*>?`)

// Truncate returns s cut to at most maxLen bytes on a rune boundary, with "..."
// appended if it was cut. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// CollapseWhitespace trims s and replaces every run of whitespace with a single space.
func CollapseWhitespace(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// PlainText replaces HTML tags with spaces and collapses whitespace, turning
// editor markup into text suitable for embedding.
func PlainText(html string) string {
	return CollapseWhitespace(htmlTag.ReplaceAllString(html, " "))
}
