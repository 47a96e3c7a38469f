package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ingelean/leanbot/internal/db"
	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/user"
)

// store is the consumer interface for sessions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	CountPrefix(ctx context.Context, prefix string) (int, error)
}

// Repo persists user sessions as JSON documents.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository. A non-positive ttl keeps sessions forever.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Get loads the session for docID.
func (r *Repo) Get(ctx context.Context, docID user.DocID) (user.Session, error) {
	data, err := r.store.Get(ctx, key(docID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return user.Session{}, domain.ErrSessionNotFound
		}
		return user.Session{}, fmt.Errorf("get session %s: %w", docID, err)
	}

	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return user.Session{}, fmt.Errorf("decode session %s: %w", docID, err)
	}
	return dto.toDomain(), nil
}

// Save stores the session and restarts its TTL.
func (r *Repo) Save(ctx context.Context, s user.Session) error {
	data, err := json.Marshal(fromDomain(s))
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.DocID, err)
	}
	if err := r.store.SetWithTTL(ctx, key(s.DocID), data, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", s.DocID, err)
	}
	return nil
}

// Delete removes the session for docID.
func (r *Repo) Delete(ctx context.Context, docID user.DocID) error {
	if err := r.store.Del(ctx, key(docID)); err != nil {
		return fmt.Errorf("delete session %s: %w", docID, err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.CountPrefix(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

const keyPrefix = domain.KeyPrefix + "session:"

func key(docID user.DocID) string {
	return keyPrefix + docID.String()
}
