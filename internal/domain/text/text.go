// Package text holds the normalization and tokenization rules shared by the
// matcher and the keyword statistics.
package text

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and keeps only ASCII letters, digits, underscore,
// whitespace and the Spanish letters áéíóúüñ. Other letters such as ç or à are dropped.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	case strings.ContainsRune("áéíóúüñ", r):
		return true
	}
	return false
}

// Tokenize splits s on runs of whitespace.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Words lowercases s, replaces punctuation with spaces and splits it.
// Unlike Normalize, "hola,mundo" yields two words.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}
