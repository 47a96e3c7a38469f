// Package session manages the per-user state that the browser widget kept in
// local storage: the document id, the backend chat id and the offline transcript.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/logger"
)

// DefaultMaxOffline caps the offline transcript; the oldest messages are dropped first.
const DefaultMaxOffline = 200

const localChatPrefix = "local-"

// Service handles login, chat reset and the offline transcript.
type Service struct {
	repo       Repository
	registrar  Registrar
	avail      Availability
	maxOffline int
	newID      func() string
	now        func() time.Time
	logger     *zap.Logger

	// serializes read-modify-write of a session
	mu sync.Mutex
}

// New creates a session service. registrar and avail may be nil for offline-only use.
func New(repo Repository, registrar Registrar, avail Availability, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		registrar:  registrar,
		avail:      avail,
		maxOffline: DefaultMaxOffline,
		newID:      uuid.NewString,
		now:        time.Now,
		logger:     log,
	}
}

// WithMaxOffline overrides the offline transcript cap.
func (s *Service) WithMaxOffline(n int) *Service {
	if n > 0 {
		s.maxOffline = n
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

// WithIDGenerator replaces the local chat id generator.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Login validates the raw document id and opens (or resumes) the user's session.
// Registration with the backend is best effort: when it fails the session gets a
// locally generated chat id and is upgraded on a later login.
func (s *Service) Login(ctx context.Context, rawDocID string) (user.Session, error) {
	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		return user.Session{}, err //nolint:wrapcheck // domain validation error
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.repo.Get(ctx, docID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		sess = user.Session{DocID: docID, CreatedAt: s.now()}
	case err != nil:
		return user.Session{}, fmt.Errorf("load session: %w", err)
	}

	if sess.ChatID == "" || sess.LocalChat {
		s.attachChat(ctx, &sess)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return user.Session{}, fmt.Errorf("save session: %w", err)
	}
	logger.FromContextOr(ctx, s.logger).Info("User logged in",
		zap.Stringer("doc_id", docID),
		zap.String("chat_id", sess.ChatID),
		zap.Bool("local_chat", sess.LocalChat),
	)
	return sess, nil
}

// Get returns the session for docID.
func (s *Service) Get(ctx context.Context, docID user.DocID) (user.Session, error) {
	sess, err := s.repo.Get(ctx, docID)
	if err != nil {
		return user.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// Reset clears chat-specific data (chat id and offline transcript) and attaches a fresh chat.
func (s *Service) Reset(ctx context.Context, docID user.DocID) (user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.repo.Get(ctx, docID)
	if err != nil {
		return user.Session{}, fmt.Errorf("load session: %w", err)
	}

	sess.ChatID = ""
	sess.LocalChat = false
	sess.Offline = nil
	s.attachChat(ctx, &sess)

	if err := s.repo.Save(ctx, sess); err != nil {
		return user.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Logout removes the session.
func (s *Service) Logout(ctx context.Context, docID user.DocID) error {
	if err := s.repo.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Active returns the number of live sessions.
func (s *Service) Active(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("active sessions: %w", err)
	}
	return n, nil
}

// AppendOffline records a locally answered exchange.
func (s *Service) AppendOffline(ctx context.Context, docID user.DocID, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.repo.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	sess.Offline = append(sess.Offline, msg)
	if over := len(sess.Offline) - s.maxOffline; over > 0 {
		sess.Offline = append([]chat.Message(nil), sess.Offline[over:]...)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Offline returns the offline transcript for docID.
func (s *Service) Offline(ctx context.Context, docID user.DocID) ([]chat.Message, error) {
	sess, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess.Offline, nil
}

func (s *Service) attachChat(ctx context.Context, sess *user.Session) {
	if s.registrar != nil && s.avail != nil && s.avail.Available() {
		reg, err := s.registrar.RegisterUser(ctx, sess.DocID)
		if err == nil {
			sess.UserID = reg.UserID
			sess.ChatID = reg.ChatID
			sess.LocalChat = false
			return
		}
		logger.FromContextOr(ctx, s.logger).Warn("Backend registration failed, using local chat id",
			zap.Stringer("doc_id", sess.DocID), zap.Error(err))
	}

	if sess.ChatID == "" {
		sess.ChatID = localChatPrefix + s.newID()
		sess.LocalChat = true
	}
}
