package leanbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/corpus"
	"github.com/ingelean/leanbot/internal/domain/synonym"
	corpusloader "github.com/ingelean/leanbot/internal/transport/corpus"
	chatuc "github.com/ingelean/leanbot/internal/usecase/chat"
	"github.com/ingelean/leanbot/internal/usecase/match"
)

// Responder answers messages locally, without the LEAN BOT backend.
type Responder struct {
	chat    *chatuc.Service
	matcher *match.Matcher
	obs     *observer
}

// New builds a responder. A corpus is required: either WithCorpus or WithCorpusFile.
// A corpus that cannot be loaded or has no entries returns an error wrapping
// ErrCorpusUnavailable.
func New(ctx context.Context, opts ...Option) (*Responder, error) {
	cfg := &responderConfig{}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	r, err := build(ctx, cfg)
	obs.observe("load", start, err)
	if err != nil {
		return nil, err
	}
	r.obs = obs
	return r, nil
}

func build(ctx context.Context, cfg *responderConfig) (*Responder, error) {
	c, err := loadCorpus(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, fmt.Errorf("leanbot: corpus has no entries: %w", domain.ErrCorpusUnavailable)
	}

	syn, err := loadSynonyms(cfg)
	if err != nil {
		return nil, err
	}

	m := match.New(c, syn, match.Config{Threshold: cfg.threshold, NoAnswer: cfg.noAnswer})
	svc := chatuc.New(nil, nil, nil, zap.NewNop()).WithMatcher(m)
	return &Responder{chat: svc, matcher: m}, nil
}

func loadCorpus(ctx context.Context, cfg *responderConfig) (corpus.Corpus, error) {
	if len(cfg.entries) > 0 {
		entries := make([]corpus.Entry, len(cfg.entries))
		for i, e := range cfg.entries {
			entries[i] = corpus.Entry{Question: e.Question, Answer: e.Answer}
		}
		return corpus.New(entries), nil
	}
	c, err := corpusloader.NewLoader(&corpusloader.Config{Source: cfg.corpusSource}).Load(ctx)
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("leanbot: %w", err)
	}
	return c, nil
}

func loadSynonyms(cfg *responderConfig) (synonym.Table, error) {
	switch {
	case cfg.noSynonyms:
		return synonym.New(nil), nil
	case len(cfg.synonyms) > 0:
		rules := make([]synonym.Rule, len(cfg.synonyms))
		for i, s := range cfg.synonyms {
			rules[i] = synonym.Rule{Term: s.Term, Expansions: s.Expansions}
		}
		return synonym.New(rules), nil
	case cfg.synonymsFile != "":
		t, err := synonym.Load(cfg.synonymsFile)
		if err != nil {
			return synonym.Table{}, fmt.Errorf("leanbot: synonyms: %w", err)
		}
		return t, nil
	default:
		return synonym.Default(), nil
	}
}

// Len returns the number of FAQ entries loaded.
func (r *Responder) Len() int { return r.matcher.Len() }

// Answer replies to text. Greetings, farewells, thanks and help requests get a
// canned reply; everything else is matched against the corpus. A corpus miss
// returns the no-answer message with Matched false.
func (r *Responder) Answer(text string) (Answer, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		r.obs.observe("answer", start, ErrEmptyMessage)
		return Answer{}, ErrEmptyMessage
	}

	reply := r.chat.Answer(context.Background(), text)
	ans := Answer{
		Text:       reply.Text,
		Source:     sourceOf(reply.Source),
		Question:   reply.Question,
		Similarity: reply.Similarity,
		Matched:    reply.Matched,
	}

	r.obs.observe("answer", start, nil)
	r.obs.answered(ans)
	return ans, nil
}

func sourceOf(s chat.Source) Source {
	switch s {
	case chat.SourceIntent:
		return SourceIntent
	case chat.SourceCorpus:
		return SourceCorpus
	default:
		return SourceStatic
	}
}
