package mediawiki

import (
	"net/url"
	"strings"
)

// PageURL joins base and the title in MediaWiki's canonical form: spaces
// become underscores and every byte outside [A-Za-z0-9-_.~] is percent-encoded.
func PageURL(base, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return base + EscapeComponent(strings.ReplaceAll(title, " ", "_"))
}

// FilePathURL builds a Special:FilePath URL for a "File:" or "Image:" reference.
func FilePathURL(base, reference string) string {
	return base + EscapeComponent(reference)
}

// EscapeComponent percent-encodes s as RFC 3986 unreserved-only.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

// DecodeURL percent-decodes an absolute URL, returning it unchanged when it
// is not valid percent-encoding.
func DecodeURL(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
