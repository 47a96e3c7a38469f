package session

import (
	"context"

	"github.com/ingelean/leanbot/internal/domain/user"
)

// Repository defines the storage contract for sessions.
type Repository interface {
	Get(ctx context.Context, docID user.DocID) (user.Session, error)
	Save(ctx context.Context, s user.Session) error
	Delete(ctx context.Context, docID user.DocID) error
	Count(ctx context.Context) (int, error)
}

// Registrar registers users with the remote backend.
type Registrar interface {
	RegisterUser(ctx context.Context, docID user.DocID) (user.Registration, error)
}

// Availability reports whether the backend answered its last probe.
type Availability interface {
	Available() bool
}
