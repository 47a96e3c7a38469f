package match

import (
	"github.com/ingelean/leanbot/internal/domain/corpus"
	"github.com/ingelean/leanbot/internal/domain/synonym"
	"github.com/ingelean/leanbot/internal/domain/text"
)

const (
	// DefaultThreshold is the minimum cosine similarity accepted as a match.
	DefaultThreshold = 0.28
	// DefaultNoAnswer is returned when no corpus entry is similar enough.
	DefaultNoAnswer = "Lo siento, no tengo una respuesta para esa pregunta. Por favor, intenta con otra consulta."
)

// Config tunes the matcher.
type Config struct {
	Threshold float64
	NoAnswer  string
}

// DefaultConfig returns the stock threshold and no-answer message.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, NoAnswer: DefaultNoAnswer}
}

// Result describes the best corpus entry for a query.
type Result struct {
	// Index of the best entry, -1 for an empty corpus.
	Index      int
	Similarity float64
	Question   string
	// Answer is the entry's answer when Matched, the no-answer message otherwise.
	Answer  string
	Matched bool
}

// Matcher finds the corpus entry whose question is most similar to a query.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	cfg      Config
	corpus   corpus.Corpus
	synonyms synonym.Table

	refs     []string // normalized questions, document frequency reference set
	prepared []string // normalized and expanded questions
}

// New creates a matcher. Zero config fields fall back to defaults.
func New(c corpus.Corpus, synonyms synonym.Table, cfg Config) *Matcher {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.NoAnswer == "" {
		cfg.NoAnswer = DefaultNoAnswer
	}

	questions := c.Questions()
	refs := make([]string, len(questions))
	prepared := make([]string, len(questions))
	m := &Matcher{cfg: cfg, corpus: c, synonyms: synonyms}
	for i, q := range questions {
		refs[i] = text.Normalize(q)
		prepared[i] = m.Preprocess(q)
	}
	m.refs = refs
	m.prepared = prepared
	return m
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config { return m.cfg }

// Len returns the number of corpus entries.
func (m *Matcher) Len() int { return m.corpus.Len() }

// Preprocess normalizes s and appends synonym expansions.
func (m *Matcher) Preprocess(s string) string {
	return text.Normalize(m.synonyms.Expand(text.Normalize(s)))
}

// Match scores query against every corpus question and returns the best one.
// Ties resolve to the lowest index. A similarity equal to the threshold matches.
func (m *Matcher) Match(query string) Result {
	if m.corpus.IsEmpty() {
		return Result{Index: -1, Answer: m.cfg.NoAnswer}
	}

	vz := NewVectorizer(m.refs)
	qv := vz.Vectorize(m.Preprocess(query))

	best, bestSim := 0, -1.0
	for i, q := range m.prepared {
		sim := Cosine(qv, vz.Vectorize(q))
		if sim > bestSim {
			best, bestSim = i, sim
		}
	}

	entry := m.corpus.Entry(best)
	res := Result{Index: best, Similarity: bestSim, Question: entry.Question}
	if bestSim >= m.cfg.Threshold {
		res.Matched = true
		res.Answer = entry.Answer
	} else {
		res.Answer = m.cfg.NoAnswer
	}
	return res
}
