// Package slug derives URL-friendly handles used as content snapshot
// keys.
package slug

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Generate creates a URL-friendly slug from a string
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = transliterate(s)

	// Replace spaces and underscores with hyphens
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	// Remove all non-alphanumeric characters except hyphens
	reg := regexp.MustCompile("[^a-z0-9-]+")
	s = reg.ReplaceAllString(s, "")

	// Remove consecutive hyphens
	reg = regexp.MustCompile("-+")
	s = reg.ReplaceAllString(s, "-")

	s = strings.Trim(s, "-")

	// Limit length to 100 characters
	if len(s) > 100 {
		s = s[:100]
		s = strings.TrimRight(s, "-")
	}

	return s
}

// FromURL builds a slug from a URL's host and path, for records whose
// title produces an empty slug (e.g. fully non-Latin titles)
func FromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Generate(rawURL)
	}

	parts := []string{parsed.Hostname()}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return Generate(strings.Join(parts, "-"))
}

// ForRecord derives the snapshot slug for a record: title first, URL as
// fallback
func ForRecord(title, rawURL string) string {
	if s := Generate(title); s != "" {
		return s
	}
	return FromURL(rawURL)
}

// transliterate converts unicode characters to ASCII equivalents
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// isMn checks if a rune is a nonspacing mark (accents, diacritics)
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
