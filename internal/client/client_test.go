package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/supportlens/internal/models"
)

func TestTracesPath(t *testing.T) {
	cases := []struct {
		query models.TraceQuery
		want  string
	}{
		{models.TraceQuery{Category: models.CategoryAll}, "/api/traces"},
		{models.TraceQuery{}, "/api/traces"},
		{models.TraceQuery{Search: "   "}, "/api/traces"},
		{models.TraceQuery{Category: models.CategoryBilling}, "/api/traces?category=Billing"},
		{models.TraceQuery{Category: models.CategoryAccountAccess, Search: " reset password "},
			"/api/traces?category=Account+Access&q=reset+password"},
		{models.TraceQuery{Search: "50% & more"}, "/api/traces?q=50%25+%26+more"},
	}
	for _, tc := range cases {
		if got := TracesPath(tc.query); got != tc.want {
			t.Errorf("TracesPath(%+v) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestQueryTracesUnfilteredHasNoQueryString(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	traces, err := c.QueryTraces(context.Background(), models.TraceQuery{Category: models.CategoryAll})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if gotURI != "/api/traces" {
		t.Fatalf("request URI = %q, want /api/traces", gotURI)
	}
	if len(traces) != 0 {
		t.Fatalf("traces = %+v", traces)
	}
}

func TestQueryTracesDecodesZonelessTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "Billing" {
			t.Errorf("category = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "refund" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"t1","user_message":"refund my invoice","bot_response":"ok",
			"category":"Billing","timestamp":"2025-02-03T04:05:06.5","response_time_ms":812}]`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	traces, err := c.QueryTraces(context.Background(), models.TraceQuery{Category: models.CategoryBilling, Search: "refund"})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("len = %d", len(traces))
	}
	want := time.Date(2025, 2, 3, 4, 5, 6, 500000000, time.UTC)
	if !traces[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", traces[0].Timestamp.Time, want)
	}
	if traces[0].ResponseTimeMS != 812 || traces[0].Category != models.CategoryBilling {
		t.Fatalf("trace = %+v", traces[0])
	}
}

func TestQueryAnalyticsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).QueryAnalytics(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error %T is not a NetworkError", err)
	}
	if netErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", netErr.StatusCode)
	}
	if err.Error() != "Fetch analytics failed: Internal Server Error" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestTransportErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).QueryTraces(context.Background(), models.TraceQuery{})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error %v is not a NetworkError", err)
	}
	if netErr.StatusCode != 0 || netErr.Unwrap() == nil {
		t.Fatalf("unexpected error shape: %+v", netErr)
	}
	if !strings.HasPrefix(err.Error(), "Fetch traces failed: ") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestSendChatAndRecordTrace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/chat":
			var req models.ChatRequest
			json.Unmarshal(body, &req)
			json.NewEncoder(w).Encode(models.ChatResponse{Response: "echo: " + req.Message, ResponseTimeMS: 42})
		case "/api/traces":
			var in models.TraceCreate
			json.Unmarshal(body, &in)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Trace{
				ID:             "new",
				UserMessage:    in.UserMessage,
				BotResponse:    in.BotResponse,
				Category:       models.CategoryRefund,
				Timestamp:      models.NewTimestamp(time.Now()),
				ResponseTimeMS: in.ResponseTimeMS,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	resp, err := c.SendChat(ctx, "hello")
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if resp.Response != "echo: hello" || resp.ResponseTimeMS != 42 {
		t.Fatalf("chat response = %+v", resp)
	}

	trace, err := c.RecordTrace(ctx, models.TraceCreate{UserMessage: "hello", BotResponse: resp.Response, ResponseTimeMS: 42})
	if err != nil {
		t.Fatalf("RecordTrace: %v", err)
	}
	if trace.ID != "new" || trace.Category != models.CategoryRefund || trace.ResponseTimeMS != 42 {
		t.Fatalf("trace = %+v", trace)
	}
}

func TestSendChatBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "LLM error: down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SendChat(context.Background(), "hi")
	if err == nil || err.Error() != "Chat failed: Bad Gateway" {
		t.Fatalf("err = %v", err)
	}
}
