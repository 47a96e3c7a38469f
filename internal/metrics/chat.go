package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat Prometheus metrics.
var (
	ChatRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leanbot",
			Name:      "chat_replies_total",
			Help:      "Total number of chat replies by source",
		},
		[]string{"source"}, // backend / intent / corpus / llm / static
	)

	MatcherSimilarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leanbot",
			Name:      "matcher_similarity",
			Help:      "Best cosine similarity found by the fallback matcher",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.28, 0.4, 0.6, 0.8, 1},
		},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leanbot",
			Name:      "backend_requests_total",
			Help:      "Total number of requests to the LEAN BOT backend",
		},
		[]string{"op", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leanbot",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	BackendAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leanbot",
			Name:      "backend_available",
			Help:      "1 when the last backend probe succeeded",
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leanbot",
			Name:      "llm_requests_total",
			Help:      "Total number of external LLM requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leanbot",
			Name:      "llm_request_duration_seconds",
			Help:      "External LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers HTTP, chat, backend and LLM metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(ChatRepliesTotal)
	prometheus.MustRegister(MatcherSimilarity)
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendAvailable)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	chatMetricsRegistered = true
}
