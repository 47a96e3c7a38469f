// Package jobs runs background work that keeps the gateway's view of the
// remote backend current.
package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/metrics"
)

// DefaultProbeInterval is how often the backend is pinged.
const DefaultProbeInterval = 30 * time.Second

// Backend is the part of the backend client the prober uses.
type Backend interface {
	Ping(ctx context.Context) error
	ConfigureAPIKey(ctx context.Context, apiKey string) error
}

// Prober pings the backend on a ticker and exposes the result as an availability flag.
type Prober struct {
	backend   Backend
	interval  time.Duration
	apiKey    string
	available atomic.Bool
	keySent   atomic.Bool
	logger    *zap.Logger
}

// NewProber creates a prober. A non-positive interval uses DefaultProbeInterval.
func NewProber(backend Backend, interval time.Duration, logger *zap.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{backend: backend, interval: interval, logger: logger}
}

// WithAPIKey sets the LLM key forwarded to the backend after its first successful ping.
func (p *Prober) WithAPIKey(key string) *Prober {
	p.apiKey = key
	return p
}

// Available reports whether the last probe succeeded.
func (p *Prober) Available() bool { return p.available.Load() }

// Probe pings the backend once and updates the flag.
func (p *Prober) Probe(ctx context.Context) bool {
	err := p.backend.Ping(ctx)
	up := err == nil
	was := p.available.Swap(up)

	if up {
		metrics.BackendAvailable.Set(1)
	} else {
		metrics.BackendAvailable.Set(0)
	}

	switch {
	case up && !was:
		p.logger.Info("Backend available")
	case !up && was:
		p.logger.Warn("Backend unavailable", zap.Error(err))
	case !up:
		p.logger.Debug("Backend still unavailable", zap.Error(err))
	}

	if up {
		p.forwardKey(ctx)
	}
	return up
}

// forwardKey sends the LLM key once. A failed attempt is retried on the next successful probe.
func (p *Prober) forwardKey(ctx context.Context) {
	if p.apiKey == "" || p.keySent.Load() {
		return
	}
	if err := p.backend.ConfigureAPIKey(ctx, p.apiKey); err != nil {
		p.logger.Warn("Failed to configure LLM key on backend", zap.Error(err))
		return
	}
	p.keySent.Store(true)
	p.logger.Info("LLM key configured on backend")
}

// Run probes immediately, then on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
