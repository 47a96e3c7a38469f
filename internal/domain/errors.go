package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocID signals a malformed user document id.
	ErrInvalidDocID = errors.New("invalid document id")
	// ErrEmptyMessage signals a blank chat message.
	ErrEmptyMessage = errors.New("empty message")
	// ErrSessionNotFound signals a missing user session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBackendUnavailable signals that the remote LEAN BOT backend could not serve a request.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrCorpusUnavailable signals that the FAQ corpus could not be loaded.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrLLMUnavailable signals an external LLM failure.
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrLLMNotConfigured signals that no LLM API key is configured.
	ErrLLMNotConfigured = errors.New("llm not configured")
)

// BackendStatusError wraps ErrBackendUnavailable with the HTTP status returned by the backend.
type BackendStatusError struct {
	Op         string
	StatusCode int
}

func (e *BackendStatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrBackendUnavailable.Error(), e.Op, e.StatusCode)
}

func (e *BackendStatusError) Unwrap() error { return ErrBackendUnavailable }

// NewBackendStatus creates a backend status error.
func NewBackendStatus(op string, statusCode int) error {
	return &BackendStatusError{Op: op, StatusCode: statusCode}
}
