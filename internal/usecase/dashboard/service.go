// Package dashboard aggregates chat histories into the numbers behind the user
// dashboard and the admin panel.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/logger"
)

// Service builds dashboards from backend data, falling back to the local
// transcript for the user dashboard.
type Service struct {
	backend    Backend
	avail      Availability
	transcript Transcript
	sessions   Sessions
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a dashboard service. backend, avail and transcript may be nil.
func New(backend Backend, avail Availability, transcript Transcript, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		avail:      avail,
		transcript: transcript,
		now:        time.Now,
		logger:     log,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithSessions enables the chat score lookup for the user's current chat.
func (s *Service) WithSessions(sessions Sessions) *Service {
	s.sessions = sessions
	return s
}

// User builds the dashboard of a single user.
func (s *Service) User(ctx context.Context, docID user.DocID) (UserDashboard, error) {
	if s.online() {
		msgs, err := s.backend.History(ctx, docID)
		if err == nil {
			d := BuildUser(msgs, s.now())
			d.ChatScore = s.chatScore(ctx, docID)
			return d, nil
		}
		logger.FromContextOr(ctx, s.logger).Warn("Backend history failed, using offline transcript",
			zap.Stringer("doc_id", docID), zap.Error(err))
	}

	if s.transcript == nil {
		d := BuildUser(nil, s.now())
		d.Offline = true
		return d, nil
	}
	msgs, err := s.transcript.Offline(ctx, docID)
	if err != nil {
		return UserDashboard{}, fmt.Errorf("offline transcript: %w", err)
	}
	d := BuildUser(msgs, s.now())
	d.Offline = true
	return d, nil
}

// Overview builds the admin overview. It needs the backend.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if !s.online() {
		return Overview{}, fmt.Errorf("admin overview: %w", domain.ErrBackendUnavailable)
	}
	convs, err := s.backend.AllChats(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("admin overview: %w", err)
	}
	return BuildOverview(convs, s.now()), nil
}

// chatScore is best effort: a missing session, a locally generated chat id or a
// backend error all leave the score unknown.
func (s *Service) chatScore(ctx context.Context, docID user.DocID) *float64 {
	if s.sessions == nil {
		return nil
	}
	sess, err := s.sessions.Get(ctx, docID)
	if err != nil || sess.LocalChat || sess.ChatID == "" {
		return nil
	}
	score, err := s.backend.ChatScore(ctx, sess.ChatID)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Debug("Chat score unavailable",
			zap.String("chat_id", sess.ChatID), zap.Error(err))
		return nil
	}
	return score
}

func (s *Service) online() bool {
	return s.backend != nil && s.avail != nil && s.avail.Available()
}
