package match

import (
	"math"
	"strings"

	"github.com/ingelean/leanbot/internal/domain/text"
)

// Vectorizer weighs tokens by term frequency times inverse document frequency
// over a fixed set of reference documents.
//
// The query being matched counts as one more document, so the idf denominator
// is len(references)+1 and a token present in every reference still carries
// weight. Document frequency counts references containing the token as a
// substring and is floored at 1.
type Vectorizer struct {
	refs  []string
	total float64
	idf   map[string]float64
}

// NewVectorizer creates a vectorizer over normalized reference documents.
func NewVectorizer(references []string) *Vectorizer {
	return &Vectorizer{
		refs:  references,
		total: float64(len(references) + 1),
		idf:   make(map[string]float64),
	}
}

// Vectorize converts preprocessed text into a TF-IDF vector.
func (v *Vectorizer) Vectorize(s string) Vector {
	tf := make(map[string]int)
	for _, tok := range text.Tokenize(s) {
		tf[tok]++
	}

	vec := make(Vector, len(tf))
	for tok, n := range tf {
		vec[tok] = float64(n) * v.IDF(tok)
	}
	return vec
}

// IDF returns ln(total / df) for token, memoized for the vectorizer's lifetime.
func (v *Vectorizer) IDF(token string) float64 {
	if w, ok := v.idf[token]; ok {
		return w
	}
	df := 0
	for _, ref := range v.refs {
		if strings.Contains(ref, token) {
			df++
		}
	}
	if df == 0 {
		df = 1
	}
	w := math.Log(v.total / float64(df))
	v.idf[token] = w
	return w
}
