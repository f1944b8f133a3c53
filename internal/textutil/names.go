package textutil

import (
	"regexp"
	"strings"
)

var (
	nameDelimiterReplacer = strings.NewReplacer("|", ";", "/", ";", "\\", ";", " and ", ";")
	nameSplitPattern      = regexp.MustCompile(`[;,]+`)
	wikiLinkEdgePattern   = regexp.MustCompile(`^\[\[|\]\]$`)
)

// SplitNames parses a free-text name list into distinct names in first-seen order.
// Accepted delimiters are ";", ",", "|", "/", "\" and the word " and ".
func SplitNames(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	parts := nameSplitPattern.Split(nameDelimiterReplacer.Replace(list), -1)
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		name = strings.TrimSpace(wikiLinkEdgePattern.ReplaceAllString(name, ""))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// JoinNames renders names in the "; " separated form SplitNames accepts.
func JoinNames(names []string) string {
	return strings.Join(names, "; ")
}

// Dedupe removes blank and repeated entries, keeping the first occurrence.
func Dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
