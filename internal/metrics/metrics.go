package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportlens_http_requests_total",
		Help: "API requests by route and status code",
	}, []string{"route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supportlens_http_request_duration_seconds",
		Help:    "API request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ChatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supportlens_chat_response_seconds",
		Help:    "Assistant reply latency",
		Buckets: []float64{0.25, 0.5, 0.8, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0},
	})

	TracesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportlens_traces_recorded_total",
		Help: "Traces stored by category",
	}, []string{"category"})

	ClassifierFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supportlens_classifier_fallbacks_total",
		Help: "Classifications answered by the keyword fallback after an LLM failure",
	})

	ClientErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportlens_client_errors_total",
		Help: "Failed trace store client calls by operation",
	}, []string{"op"})
)
