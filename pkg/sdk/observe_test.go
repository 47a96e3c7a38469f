package leanbot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver_NilIsSafe(t *testing.T) {
	var o *observer
	o.observe("answer", time.Now(), nil)
	o.answered(Answer{Source: SourceCorpus})
}

func TestObserver_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}

	o.observe("answer", time.Now(), nil)
	o.observe("answer", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(o.metrics.operations.WithLabelValues("answer", "ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(o.metrics.operations.WithLabelValues("answer", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}

	first.answered(Answer{Source: SourceIntent})
	second.answered(Answer{Source: SourceIntent})
	if got := testutil.ToFloat64(second.metrics.answers.WithLabelValues("intent")); got != 2 {
		t.Errorf("answers = %v, want 2", got)
	}
}

func TestResponder_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := newTestResponder(t, WithLogger(log))
	_, _ = r.Answer("")

	if !strings.Contains(buf.String(), "operation failed") {
		t.Errorf("expected failure log, got %q", buf.String())
	}
}

func TestResponder_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(context.Background(), WithCorpus(testEntries...), WithPrometheus(reg))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Answer("¿Quiénes son los participantes?"); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(r.obs.metrics.answers.WithLabelValues("corpus")); got != 1 {
		t.Errorf("corpus answers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.obs.metrics.operations.WithLabelValues("load", "ok")); got != 1 {
		t.Errorf("load ok = %v, want 1", got)
	}
}
