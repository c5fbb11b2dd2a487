package weather

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize canonicalizes a free-text city name: trimmed, lower-cased, and the
// first letter of every space-separated token upper-cased. Blank input yields "".
//
// Only single spaces delimit tokens, so "new-york" becomes "New-york".
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// CacheKey derives the cache key from an already normalized name.
func CacheKey(normalized string) string {
	return strings.ToLower(normalized)
}
