// pkg/textnorm/textnorm.go
//
// Turkish text normalization helpers shared by the intent router and
// the draft attribute extractor. All matching in the router happens on
// the folded form produced by Normalize.
package textnorm

import (
	"strings"
	"unicode"
)

var foldMap = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'I': 'i',
	'İ': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
	'â': 'a', 'Â': 'a',
	'î': 'i', 'Î': 'i',
	'û': 'u', 'Û': 'u',
}

// Normalize lowercases the text and strips Turkish diacritics so that
// "Sİlebilir" and "silebilir" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if m, ok := foldMap[r]; ok {
			b.WriteRune(m)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Tokens splits normalized text into whole tokens at unicode
// word boundaries. Digits stay attached to letters ("4g" is one token).
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasToken reports whether any member of set occurs as a whole token
// in tokens.
func HasToken(tokens []string, set []string) bool {
	for _, t := range tokens {
		for _, w := range set {
			if t == w {
				return true
			}
		}
	}
	return false
}

// HasPrefixToken reports whether any token starts with the given stem.
func HasPrefixToken(tokens []string, stem string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t, stem) {
			return true
		}
	}
	return false
}

// HasPhrase reports whether any member of set occurs as a substring of
// the normalized text. Used for multi-word triggers ("tum ilanlar").
func HasPhrase(normalized string, set []string) bool {
	for _, p := range set {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
