// Package corpus loads the FAQ corpus from a local file or an HTTP(S) URL.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	domcorpus "github.com/ingelean/leanbot/internal/domain/corpus"
)

const (
	defaultTimeout = 10 * time.Second
	maxCorpusSize  = 8 << 20
)

// Config holds loader settings. Source is a file path or an http(s) URL.
type Config struct {
	Source     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Loader reads the corpus document {"faq": [{"question": ..., "answer": ...}]}.
type Loader struct {
	source  string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// NewLoader creates a corpus loader.
func NewLoader(cfg *Config) *Loader {
	l := &Loader{
		source:  cfg.Source,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	if l.timeout <= 0 {
		l.timeout = defaultTimeout
	}
	if l.http == nil {
		l.http = &http.Client{}
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

// Load fetches and decodes the corpus. Any failure wraps domain.ErrCorpusUnavailable.
func (l *Loader) Load(ctx context.Context) (domcorpus.Corpus, error) {
	if strings.TrimSpace(l.source) == "" {
		return domcorpus.Corpus{}, fmt.Errorf("corpus source not configured: %w", domain.ErrCorpusUnavailable)
	}

	var (
		c   domcorpus.Corpus
		err error
	)
	if isURL(l.source) {
		c, err = l.fetch(ctx)
	} else {
		c, err = l.readFile()
	}
	if err != nil {
		return domcorpus.Corpus{}, err
	}

	l.logger.Info("Corpus loaded", zap.String("source", l.source), zap.Int("entries", c.Len()))
	return c, nil
}

func (l *Loader) readFile() (domcorpus.Corpus, error) {
	f, err := os.Open(filepath.Clean(l.source))
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("open corpus %s: %w: %w", l.source, domain.ErrCorpusUnavailable, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(io.LimitReader(f, maxCorpusSize))
}

func (l *Loader) fetch(ctx context.Context) (domcorpus.Corpus, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, http.NoBody)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("build corpus request: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("fetch corpus: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domcorpus.Corpus{}, fmt.Errorf("fetch corpus: status %d: %w", resp.StatusCode, domain.ErrCorpusUnavailable)
	}
	return Decode(io.LimitReader(resp.Body, maxCorpusSize))
}

type document struct {
	FAQ *[]domcorpus.Entry `json:"faq"`
}

// Decode parses a corpus document. A missing "faq" key, or a list with no
// usable entries, wraps domain.ErrCorpusUnavailable.
func Decode(r io.Reader) (domcorpus.Corpus, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("decode corpus: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	if doc.FAQ == nil {
		return domcorpus.Corpus{}, fmt.Errorf("decode corpus: missing faq list: %w", domain.ErrCorpusUnavailable)
	}
	c := domcorpus.New(*doc.FAQ)
	if c.IsEmpty() {
		return domcorpus.Corpus{}, fmt.Errorf("decode corpus: empty faq list: %w", domain.ErrCorpusUnavailable)
	}
	return c, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
