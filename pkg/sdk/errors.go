package leanbot

import "github.com/ingelean/leanbot/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrCorpusUnavailable = domain.ErrCorpusUnavailable
	ErrEmptyMessage      = domain.ErrEmptyMessage
)
