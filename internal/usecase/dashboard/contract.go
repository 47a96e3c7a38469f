package dashboard

import (
	"context"

	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
)

// Backend reads chat data kept by the remote LEAN BOT backend.
type Backend interface {
	History(ctx context.Context, docID user.DocID) ([]chat.Message, error)
	AllChats(ctx context.Context) ([]chat.Conversation, error)
	ChatScore(ctx context.Context, chatID string) (*float64, error)
}

// Availability reports whether the backend answered its last probe.
type Availability interface {
	Available() bool
}

// Transcript returns exchanges recorded locally while the backend was down.
type Transcript interface {
	Offline(ctx context.Context, docID user.DocID) ([]chat.Message, error)
}

// Sessions resolves the chat a user is logged into.
type Sessions interface {
	Get(ctx context.Context, docID user.DocID) (user.Session, error)
}
