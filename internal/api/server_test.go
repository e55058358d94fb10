package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xaenox/supportlens/internal/classifier"
	"github.com/xaenox/supportlens/internal/client"
	"github.com/xaenox/supportlens/internal/models"
	"github.com/xaenox/supportlens/internal/storage"
)

type fakeResponder struct {
	err error
}

func (r *fakeResponder) Respond(ctx context.Context, message string) (*models.ChatResponse, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &models.ChatResponse{Response: "We can help with: " + message, ResponseTimeMS: 730}, nil
}

func setupServer(t *testing.T, responder *fakeResponder) (*httptest.Server, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage(storage.Options{})
	s := NewServer(store, responder, classifier.NewKeywordClassifier(), zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 3, 5, 4, 30, 0, 0, time.FixedZone("X", 7200)) }

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func TestRecordThenQueryByCategory(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})
	c := client.New(srv.URL)
	ctx := context.Background()

	created, err := c.RecordTrace(ctx, models.TraceCreate{
		UserMessage:    "I want a refund for last month",
		BotResponse:    "I've opened a refund request.",
		ResponseTimeMS: 950,
	})
	if err != nil {
		t.Fatalf("RecordTrace: %v", err)
	}
	if created.ID == "" || created.Category != models.CategoryRefund {
		t.Fatalf("created = %+v", created)
	}
	if want := time.Date(2025, 3, 5, 2, 30, 0, 0, time.UTC); !created.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", created.Timestamp.Time, want)
	}

	traces, err := c.QueryTraces(ctx, models.TraceQuery{Category: created.Category})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(traces) != 1 || traces[0].ID != created.ID {
		t.Fatalf("traces = %+v", traces)
	}

	other, err := c.QueryTraces(ctx, models.TraceQuery{Category: models.CategoryBilling})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("Billing listing = %+v", other)
	}
}

func TestCreateTraceStatusAndWireFormat(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	body := `{"user_message":"How do I reset my password?","bot_response":"Use the reset link.","response_time_ms":412}`
	resp, err := http.Post(srv.URL+"/api/traces", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if raw["timestamp"] != "2025-03-05T02:30:00" {
		t.Fatalf("timestamp = %v", raw["timestamp"])
	}
	if raw["category"] != "Account Access" {
		t.Fatalf("category = %v", raw["category"])
	}
}

func TestCreateTraceValidation(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	for _, body := range []string{
		`not json`,
		`{"user_message":"","bot_response":"x","response_time_ms":1}`,
		`{"user_message":"x","bot_response":"x","response_time_ms":-5}`,
	} {
		resp, err := http.Post(srv.URL+"/api/traces", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestListTracesInvalidCategory(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	resp, err := http.Get(srv.URL + "/api/traces?category=Shipping")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "Invalid category: Shipping" {
		t.Fatalf("body = %q", body)
	}
}

func TestListTracesEmptyIsJSONArray(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	resp, err := http.Get(srv.URL + "/api/traces")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestSearchAndAnalytics(t *testing.T) {
	srv, store := setupServer(t, &fakeResponder{})
	ctx := context.Background()
	for i, tr := range []models.Trace{
		{UserMessage: "Refund the duplicate charge", BotResponse: "Done", Category: models.CategoryBilling, ResponseTimeMS: 1000},
		{UserMessage: "Invoice question", BotResponse: "Sure", Category: models.CategoryBilling, ResponseTimeMS: 500},
		{UserMessage: "I want a REFUND", BotResponse: "Ok", Category: models.CategoryRefund, ResponseTimeMS: 1200},
	} {
		tr.ID = string(rune('a' + i))
		tr.Timestamp = models.NewTimestamp(time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC))
		if err := store.SaveTrace(ctx, &tr); err != nil {
			t.Fatal(err)
		}
	}

	c := client.New(srv.URL)
	traces, err := c.QueryTraces(ctx, models.TraceQuery{Category: models.CategoryBilling, Search: "refund"})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(traces) != 1 || traces[0].ID != "a" {
		t.Fatalf("traces = %+v", traces)
	}

	analytics, err := c.QueryAnalytics(ctx)
	if err != nil {
		t.Fatalf("QueryAnalytics: %v", err)
	}
	if analytics.TotalTraces != 3 || analytics.AvgResponseTimeMS != 900 {
		t.Fatalf("analytics = %+v", analytics)
	}
	sum := 0
	for _, s := range analytics.ByCategory {
		sum += s.Count
	}
	if sum != analytics.TotalTraces {
		t.Fatalf("sum %d != total %d", sum, analytics.TotalTraces)
	}
}

func TestChat(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	resp, err := client.New(srv.URL).SendChat(context.Background(), "billing help")
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if resp.Response != "We can help with: billing help" || resp.ResponseTimeMS != 730 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestChatUpstreamFailureIsBadGateway(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{err: errors.New("rate limited")})

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "LLM error: rate limited" {
		t.Fatalf("body = %q", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := setupServer(t, &fakeResponder{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("health = %q", body)
	}

	// one instrumented request so the vector has a sample
	if resp, err = http.Get(srv.URL + "/api/analytics"); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "supportlens_http_requests_total") {
		t.Fatal("metrics output missing request counter")
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewServer(storage.NewMemoryStorage(storage.Options{}), &fakeResponder{},
		classifier.NewKeywordClassifier(), zap.New(core))

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, &models.Analytics{AvgResponseTimeMS: math.Inf(1)})

	entries := logs.FilterMessage("Failed to write response").All()
	if len(entries) != 1 {
		t.Fatalf("got %d encode failure logs, want 1", len(entries))
	}
	if status := entries[0].ContextMap()["status"]; status != int64(http.StatusOK) {
		t.Fatalf("logged status = %v", status)
	}
}
