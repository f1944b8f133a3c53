package catalog

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gamewiki/internal/mediawiki"
)

var (
	parenthesized = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	yearPattern   = regexp.MustCompile(`(19|20)\d{2}`)
)

// CleanTitle strips parenthesized disambiguation, collapses whitespace and
// trims. It returns nil when nothing is left.
func CleanTitle(title string) *string {
	clean := parenthesized.ReplaceAllString(title, " ")
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return nil
	}
	return &clean
}

// ReleaseYear returns the first 19xx or 20xx year in a raw release date.
func ReleaseYear(releaseDate string) *int {
	match := yearPattern.FindString(releaseDate)
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &year
}

// NormalizeCoverURL turns an infobox or cargo cover value into a usable URL.
// Absolute URLs are percent-decoded, "File:" and "Image:" references become
// Special:FilePath links under filePathBase, and anything else is returned
// unchanged.
func NormalizeCoverURL(cover *string, filePathBase string) *string {
	if cover == nil {
		return nil
	}
	value := strings.TrimSpace(*cover)
	var normalized string
	switch {
	case value == "":
		return nil
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		normalized = mediawiki.DecodeURL(value)
	case strings.HasPrefix(value, "File:"), strings.HasPrefix(value, "Image:"):
		normalized = mediawiki.FilePathURL(filePathBase, value)
	default:
		normalized = value
	}
	return &normalized
}

// titleFromURL recovers a page title from a canonical page URL.
func titleFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	segment := path.Base(parsed.Path)
	if segment == "." || segment == "/" {
		return ""
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	return strings.TrimSpace(strings.ReplaceAll(segment, "_", " "))
}
