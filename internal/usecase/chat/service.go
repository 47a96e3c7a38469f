// Package chat implements the LEAN BOT responder: the remote backend first, then
// the local fallback chain of intents, FAQ corpus and external LLM.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/logger"
	"github.com/ingelean/leanbot/internal/metrics"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// Service answers user messages. Reply never fails for a non-empty message:
// every failure degrades to a local answer.
type Service struct {
	backend    Backend
	avail      Availability
	transcript Transcript
	matcher    Matcher
	llm        LLM
	pick       Picker
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a responder. Any dependency may be nil: a nil backend or
// availability keeps every answer local, a nil transcript skips recording.
func New(backend Backend, avail Availability, transcript Transcript, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		avail:      avail,
		transcript: transcript,
		pick:       rand.IntN,
		now:        time.Now,
		logger:     log,
	}
}

// WithMatcher sets the corpus matcher. Without one, or with an empty one, the
// corpus counts as not loaded.
func (s *Service) WithMatcher(m Matcher) *Service {
	s.matcher = m
	return s
}

// WithLLM enables the external LLM for questions outside the corpus.
func (s *Service) WithLLM(l LLM) *Service {
	s.llm = l
	return s
}

// WithPicker replaces the random choice of greeting and farewell replies.
func (s *Service) WithPicker(p Picker) *Service {
	if p != nil {
		s.pick = p
	}
	return s
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Reply answers a user message, recording local answers in the user's offline transcript.
func (s *Service) Reply(ctx context.Context, docID user.DocID, message string) (chat.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return chat.Reply{}, domain.ErrEmptyMessage
	}
	at := s.now()

	if reply, ok := s.remote(ctx, docID, message, at); ok {
		metrics.ChatRepliesTotal.WithLabelValues(string(reply.Source)).Inc()
		return reply, nil
	}

	reply := s.Answer(ctx, message)
	reply.Timestamp = at
	metrics.ChatRepliesTotal.WithLabelValues(string(reply.Source)).Inc()

	if s.transcript != nil {
		msg := chat.Message{Message: message, Response: reply.Text, Timestamp: at}
		if err := s.transcript.AppendOffline(ctx, docID, msg); err != nil {
			logger.FromContextOr(ctx, s.logger).Warn("Failed to record offline message",
				zap.Stringer("doc_id", docID), zap.Error(err))
		}
	}
	return reply, nil
}

func (s *Service) remote(ctx context.Context, docID user.DocID, message string, at time.Time) (chat.Reply, bool) {
	if s.backend == nil || s.avail == nil || !s.avail.Available() {
		return chat.Reply{}, false
	}

	msg, err := s.backend.SendMessage(ctx, docID, message, at)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Backend reply failed, using local fallback",
			zap.Stringer("doc_id", docID), zap.Error(err))
		return chat.Reply{}, false
	}
	if strings.TrimSpace(msg.Response) == "" {
		logger.FromContextOr(ctx, s.logger).Warn("Backend returned an empty reply, using local fallback",
			zap.Stringer("doc_id", docID))
		return chat.Reply{}, false
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = at
	}
	return chat.Reply{Text: msg.Response, Source: chat.SourceBackend, Score: msg.Score, Timestamp: ts}, true
}

// Answer runs the local fallback chain without touching the backend.
func (s *Service) Answer(ctx context.Context, message string) chat.Reply {
	if s.matcher == nil || s.matcher.Len() == 0 {
		return chat.Reply{Text: StaticReply, Source: chat.SourceStatic}
	}

	normalized := strings.ToLower(strings.TrimSpace(message))
	switch detectIntent(normalized) {
	case intentFarewell:
		return chat.Reply{Text: s.choose(FarewellReplies), Source: chat.SourceIntent}
	case intentThanks:
		return chat.Reply{Text: ThanksReply, Source: chat.SourceIntent}
	case intentHelp:
		return chat.Reply{Text: HelpReply, Source: chat.SourceIntent}
	case intentGreeting:
		return chat.Reply{Text: s.choose(GreetingReplies) + greetingSuffix, Source: chat.SourceIntent}
	case intentNone:
	}

	res := s.matcher.Match(normalized)
	if res.Index >= 0 {
		metrics.MatcherSimilarity.Observe(res.Similarity)
	}
	logger.FromContextOr(ctx, s.logger).Debug("Corpus match",
		zap.Int("index", res.Index),
		zap.String("question", res.Question),
		zap.Float64("similarity", res.Similarity),
		zap.Bool("matched", res.Matched),
	)

	corpusReply := chat.Reply{
		Text:       res.Answer,
		Source:     chat.SourceCorpus,
		Similarity: res.Similarity,
		Question:   res.Question,
		Matched:    res.Matched,
	}
	if res.Matched || isProjectQuestion(normalized) {
		return corpusReply
	}

	if s.llm == nil || !s.llm.Configured() {
		return corpusReply
	}
	answer, err := s.llm.Ask(ctx, message)
	if err != nil {
		if !errors.Is(err, domain.ErrLLMNotConfigured) {
			logger.FromContextOr(ctx, s.logger).Warn("LLM fallback failed", zap.Error(err))
		}
		return corpusReply
	}
	return chat.Reply{Text: answer + LLMSuffix, Source: chat.SourceLLM, Similarity: res.Similarity}
}

// History returns the user's transcript from the backend, or the offline
// transcript when the backend is unavailable.
func (s *Service) History(ctx context.Context, docID user.DocID) ([]chat.Message, error) {
	if s.backend != nil && s.avail != nil && s.avail.Available() {
		msgs, err := s.backend.History(ctx, docID)
		if err == nil {
			return msgs, nil
		}
		logger.FromContextOr(ctx, s.logger).Warn("Backend history failed, using offline transcript",
			zap.Stringer("doc_id", docID), zap.Error(err))
	}

	if s.transcript == nil {
		return nil, nil
	}
	msgs, err := s.transcript.Offline(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("offline transcript: %w", err)
	}
	return msgs, nil
}

func (s *Service) choose(replies []string) string {
	i := s.pick(len(replies))
	if i < 0 || i >= len(replies) {
		i = 0
	}
	return replies[i]
}
