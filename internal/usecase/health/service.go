package health

import (
	"context"

	"github.com/ingelean/leanbot/internal/domain/chat"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the gateway answers from its local fallback.
	Degraded Status = "degraded"
	// Unhealthy indicates the session store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	CheckSessions = "sessions"
	CheckBackend  = "backend"
	CheckCorpus   = "corpus"
	CheckLLM      = "llm"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// ActiveSessions is nil when no counter is set or counting failed.
	ActiveSessions *int
}

// Service coordinates health checks.
type Service struct {
	sessions      Pinger
	backend       Pinger
	llm           LLMChecker
	corpusEntries int
	backendLLM    BackendLLM
	avail         Availability
	counter       SessionCounter
}

// New creates a Service. backend and llm can be nil; corpusEntries is the
// number of loaded FAQ entries.
func New(sessions, backend Pinger, llm LLMChecker, corpusEntries int) *Service {
	return &Service{sessions: sessions, backend: backend, llm: llm, corpusEntries: corpusEntries}
}

// WithBackendLLM lets LLMStatus ask the backend first while it is available.
func (s *Service) WithBackendLLM(b BackendLLM, avail Availability) *Service {
	s.backendLLM = b
	s.avail = avail
	return s
}

// WithSessionCounter adds the live session count to reports.
func (s *Service) WithSessionCounter(c SessionCounter) *Service {
	s.counter = c
	return s
}

// LLMStatus probes the language model: through the backend when it is up,
// otherwise directly.
func (s *Service) LLMStatus(ctx context.Context) chat.LLMStatus {
	if s.backendLLM != nil && s.avail != nil && s.avail.Available() {
		if st, err := s.backendLLM.TestLLM(ctx); err == nil {
			return st
		}
	}

	if s.llm == nil {
		return chat.LLMStatus{OK: false, Message: "LLM not configured", Via: "direct"}
	}
	if err := s.llm.HealthCheck(ctx); err != nil {
		return chat.LLMStatus{OK: false, Message: err.Error(), Via: "direct"}
	}
	return chat.LLMStatus{OK: true, Message: "LLM responded", Via: "direct"}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckSessions] = result(s.sessions.Ping(ctx))
	if s.backend != nil {
		checks[CheckBackend] = result(s.backend.Ping(ctx))
	}
	if s.llm != nil {
		checks[CheckLLM] = result(s.llm.HealthCheck(ctx))
	}
	if s.corpusEntries > 0 {
		checks[CheckCorpus] = CheckOK
	} else {
		checks[CheckCorpus] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckSessions] == CheckError {
		status = Unhealthy
	}

	report := Report{Status: status, Checks: checks}
	if s.counter != nil && checks[CheckSessions] == CheckOK {
		if n, err := s.counter.Active(ctx); err == nil {
			report.ActiveSessions = &n
		}
	}
	return report
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
