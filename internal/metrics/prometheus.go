package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nyra-ai/nyra/internal/orchestrate"
)

var (
	// InteractionsTotal counts tool invocations by tool, status tag and processing location.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nyra",
		Name:      "interactions_total",
		Help:      "Total number of AI tool invocations, by tool, status and processing location.",
	}, []string{"tool", "status", "processing"})

	// InteractionDuration observes invocation latency by tool.
	InteractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nyra",
		Name:      "interaction_duration_seconds",
		Help:      "Latency of AI tool invocations in seconds, by tool.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"tool"})

	// BackendRequestsTotal counts requests served by the development backend.
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nyra",
		Name:      "backend_requests_total",
		Help:      "Total number of development backend requests, by route and status code class.",
	}, []string{"route", "code"})
)

func observe(rec orchestrate.Interaction) {
	processing := rec.Processing
	if processing == "" {
		processing = "none"
	}
	InteractionsTotal.WithLabelValues(string(rec.Tool), string(rec.Status), processing).Inc()
	InteractionDuration.WithLabelValues(string(rec.Tool)).Observe(float64(rec.DurationMs) / 1000)
}

// ObserveBackendRequest counts one served backend request.
func ObserveBackendRequest(route string, status int) {
	BackendRequestsTotal.WithLabelValues(route, codeClass(status)).Inc()
}

func codeClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
