package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/metrics"
	"github.com/xaenox/supportlens/internal/models"
	"github.com/xaenox/supportlens/internal/storage"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	resp, err := s.assistant.Respond(r.Context(), message)
	if err != nil {
		s.logger.Error("Failed to generate chat response", zap.Error(err))
		http.Error(w, "LLM error: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTrace(w http.ResponseWriter, r *http.Request) {
	var req models.TraceCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" || strings.TrimSpace(req.BotResponse) == "" {
		http.Error(w, "user_message and bot_response are required", http.StatusBadRequest)
		return
	}
	if req.ResponseTimeMS < 0 {
		http.Error(w, "response_time_ms must not be negative", http.StatusBadRequest)
		return
	}

	category, err := s.classifier.Classify(r.Context(), req.UserMessage, req.BotResponse)
	if err != nil {
		s.logger.Error("Failed to classify trace", zap.Error(err))
		http.Error(w, "Classification error: "+err.Error(), http.StatusBadGateway)
		return
	}

	trace := &models.Trace{
		ID:             s.newID(),
		UserMessage:    req.UserMessage,
		BotResponse:    req.BotResponse,
		Category:       category,
		Timestamp:      models.NewTimestamp(s.now()),
		ResponseTimeMS: req.ResponseTimeMS,
	}
	if err := s.store.SaveTrace(r.Context(), trace); err != nil {
		s.logger.Error("Failed to save trace",
			zap.Error(err),
			zap.String("trace_id", trace.ID))
		http.Error(w, "failed to save trace", http.StatusInternalServerError)
		return
	}

	metrics.TracesRecorded.WithLabelValues(string(category)).Inc()
	s.logger.Info("Recorded trace",
		zap.String("trace_id", trace.ID),
		zap.String("category", string(category)),
		zap.Int64("response_time_ms", trace.ResponseTimeMS))
	s.writeJSON(w, http.StatusCreated, trace)
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := models.TraceQuery{
		Category: models.Category(params.Get("category")),
		Search:   params.Get("q"),
	}

	traces, err := s.store.QueryTraces(r.Context(), query)
	if errors.Is(err, storage.ErrInvalidCategory) {
		http.Error(w, "Invalid category: "+string(query.Category), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("Failed to query traces", zap.Error(err))
		http.Error(w, "failed to query traces", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, traces)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.store.Analytics(r.Context())
	if err != nil {
		s.logger.Error("Failed to compute analytics", zap.Error(err))
		http.Error(w, "failed to compute analytics", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response",
			zap.Error(err),
			zap.Int("status", status))
	}
}
