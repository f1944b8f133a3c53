package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

// NormalizeText decodes HTML entities, converts non-breaking spaces to plain
// spaces, collapses whitespace runs, and trims the result.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	// Nested escapes such as "&amp;amp;" are decoded until nothing changes.
	for passes := len(text); passes > 0 && strings.Contains(text, "&"); passes-- {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeAll normalizes every value and drops the ones that end up empty or repeated.
func NormalizeAll(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		normalized = append(normalized, NormalizeText(value))
	}
	return Dedupe(normalized)
}
