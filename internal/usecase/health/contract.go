package health

import (
	"context"

	"github.com/ingelean/leanbot/internal/domain/chat"
)

// Pinger checks availability of a dependency: the session store or the remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks external LLM availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}

// BackendLLM asks the remote backend to probe its own LLM integration.
type BackendLLM interface {
	TestLLM(ctx context.Context) (chat.LLMStatus, error)
}

// SessionCounter reports how many user sessions are live.
type SessionCounter interface {
	Active(ctx context.Context) (int, error)
}

// Availability reports whether the backend answered its last probe.
type Availability interface {
	Available() bool
}
