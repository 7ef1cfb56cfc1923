// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns a canonical comparison form of a title or artist
// string: lowercased, diacritics folded, punctuation stripped, and
// whitespace collapsed. "Beyoncé" and "beyonce", or "Don't Stop" and
// "dont stop", normalize identically.
func Normalize(s string) string {
	s = foldDiacritics(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// foldDiacritics strips combining marks after NFD decomposition, so
// accented letters compare equal to their base form.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// QueryKey returns the canonical form of an (artist, title) pair, used
// for cache keys and library identity.
func QueryKey(artist, title string) string {
	return Normalize(artist) + "|" + Normalize(title)
}
