package leanbot

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Responder.
type Option interface {
	apply(*responderConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*responderConfig)

func (f optionFunc) apply(c *responderConfig) { f(c) }

type responderConfig struct {
	corpusSource string
	entries      []Entry

	synonymsFile string
	synonyms     []Synonym
	noSynonyms   bool

	threshold float64
	noAnswer  string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCorpusFile loads the FAQ document {"faq": [...]} from a file path or an http(s) URL.
func WithCorpusFile(source string) Option {
	return optionFunc(func(c *responderConfig) {
		c.corpusSource = source
	})
}

// WithCorpus uses the given entries instead of loading a document.
func WithCorpus(entries ...Entry) Option {
	return optionFunc(func(c *responderConfig) {
		c.entries = append([]Entry(nil), entries...)
	})
}

// WithSynonyms loads the term expander dictionary from a .yaml or .toml file.
// Without it the built-in dictionary is used.
func WithSynonyms(path string) Option {
	return optionFunc(func(c *responderConfig) {
		c.synonymsFile = path
	})
}

// WithSynonymRules uses the given dictionary instead of a file.
// An empty call disables term expansion.
func WithSynonymRules(rules ...Synonym) Option {
	return optionFunc(func(c *responderConfig) {
		c.synonyms = append([]Synonym(nil), rules...)
		c.noSynonyms = len(rules) == 0
	})
}

// WithThreshold sets the minimum cosine similarity for a FAQ match.
// Default: 0.28.
func WithThreshold(t float64) Option {
	return optionFunc(func(c *responderConfig) {
		c.threshold = t
	})
}

// WithNoAnswer replaces the reply given when nothing in the corpus matches.
func WithNoAnswer(text string) Option {
	return optionFunc(func(c *responderConfig) {
		c.noAnswer = text
	})
}

// WithLogger enables structured logging for responder operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *responderConfig) {
		c.logger = l
	})
}

// WithPrometheus registers responder metrics (answer counts by source, durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *responderConfig) {
		c.metricsReg = reg
	})
}
