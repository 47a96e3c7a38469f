package leanbot

// Entry is one FAQ question and its answer.
type Entry struct {
	Question string
	Answer   string
}

// Synonym expands a trigger term with related terms before matching.
type Synonym struct {
	Term       string
	Expansions []string
}

// Source tells which part of the responder produced an answer.
type Source string

// Answer sources.
const (
	SourceIntent Source = "intent"
	SourceCorpus Source = "corpus"
	SourceStatic Source = "static"
)

// Answer is the responder's reply to a message.
type Answer struct {
	Text   string
	Source Source
	// Similarity is the cosine similarity of the best FAQ entry; zero for intents.
	Similarity float64
	// Question is the FAQ question that was matched, if any.
	Question string
	Matched  bool
}
