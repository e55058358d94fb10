package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/assistant"
	"github.com/xaenox/supportlens/internal/classifier"
	"github.com/xaenox/supportlens/internal/metrics"
	"github.com/xaenox/supportlens/internal/storage"
)

// Server exposes the chat, trace and analytics endpoints.
type Server struct {
	store      storage.Storage
	assistant  assistant.Responder
	classifier classifier.Classifier
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewServer(store storage.Storage, responder assistant.Responder, clf classifier.Classifier, logger *zap.Logger) *Server {
	return &Server{
		store:      store,
		assistant:  responder,
		classifier: clf,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Handler wires every route onto a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/chat", instrument("chat", s.handleChat))
	mux.HandleFunc("POST /api/traces", instrument("create_trace", s.handleCreateTrace))
	mux.HandleFunc("GET /api/traces", instrument("list_traces", s.handleListTraces))
	mux.HandleFunc("GET /api/analytics", instrument("analytics", s.handleAnalytics))
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
