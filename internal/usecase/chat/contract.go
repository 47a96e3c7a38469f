package chat

import (
	"context"
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/usecase/match"
)

// Backend sends messages to the remote LEAN BOT backend.
type Backend interface {
	SendMessage(ctx context.Context, docID user.DocID, text string, at time.Time) (chat.Message, error)
	History(ctx context.Context, docID user.DocID) ([]chat.Message, error)
}

// Availability reports whether the backend answered its last probe.
type Availability interface {
	Available() bool
}

// Matcher finds the best corpus answer for a query.
type Matcher interface {
	Match(query string) match.Result
	Len() int
}

// LLM answers general questions the corpus cannot.
type LLM interface {
	Configured() bool
	Ask(ctx context.Context, question string) (string, error)
}

// Transcript keeps locally produced exchanges for a user.
type Transcript interface {
	AppendOffline(ctx context.Context, docID user.DocID, msg chat.Message) error
	Offline(ctx context.Context, docID user.DocID) ([]chat.Message, error)
}
