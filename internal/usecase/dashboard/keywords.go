package dashboard

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TopKeywordsLimit is the number of keywords in the admin overview.
const TopKeywordsLimit = 5

// minKeywordLen excludes short words; a keyword has more runes than this.
const minKeywordLen = 3

// WordSentiment is the mood attached to a single keyword.
type WordSentiment string

const (
	WordHappy   WordSentiment = "happy"
	WordSad     WordSentiment = "sad"
	WordNeutral WordSentiment = "neutral"
)

// Keyword is a frequent word in user messages.
type Keyword struct {
	Word      string
	Count     int
	Sentiment WordSentiment
}

var stopWords = toSet(
	"el", "la", "de", "que", "y", "a", "en", "un", "es", "se", "no", "te", "lo", "le", "da", "su",
	"por", "son", "con", "para", "una", "tiene", "me", "si", "hay", "o", "ser", "está", "como", "mi",
	"sus", "del", "al", "las", "todo", "pero", "más", "hace", "muy", "puede", "sobre", "años",
	"estado", "tan", "porque", "esta", "cuando", "él", "también", "antes", "han", "hasta", "ahora",
	"donde", "quien", "durante", "siempre", "todos", "mismo", "otro", "entre",
)

var (
	happyWords = toSet("gracias", "excelente", "perfecto", "bueno", "genial", "fantástico", "increíble", "ayuda", "útil")
	sadWords   = toSet("problema", "error", "mal", "horrible", "terrible", "fallo", "difícil")
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// keywordRune reports whether r survives keyword cleaning: ASCII word
// characters, whitespace and the lowercase Spanish accented letters.
func keywordRune(r rune) bool {
	switch {
	case r < utf8.RuneSelf:
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune("áéíóúñ", r)
}

// countKeywords adds the keywords of message to counts.
func countKeywords(message string, counts map[string]int) {
	cleaned := strings.Map(func(r rune) rune {
		if keywordRune(r) {
			return r
		}
		return ' '
	}, strings.ToLower(message))

	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) <= minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		counts[w]++
	}
}

// topKeywords returns the limit most frequent words, ties in alphabetical order.
func topKeywords(counts map[string]int, limit int) []Keyword {
	out := make([]Keyword, 0, len(counts))
	for w, c := range counts {
		out = append(out, Keyword{Word: w, Count: c, Sentiment: wordSentiment(w)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func wordSentiment(w string) WordSentiment {
	if _, ok := happyWords[w]; ok {
		return WordHappy
	}
	if _, ok := sadWords[w]; ok {
		return WordSad
	}
	return WordNeutral
}
