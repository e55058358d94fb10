// Package client talks to the trace store HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/metrics"
	"github.com/xaenox/supportlens/internal/models"
)

// Client issues requests against the trace store. It holds no state besides
// its configuration, never caches, and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the store at baseURL (scheme and host, optionally a path prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TracesPath returns the request path and query for q. Empty filters are
// omitted, so the unfiltered listing has no query string at all.
func TracesPath(q models.TraceQuery) string {
	q = q.Normalize()
	params := url.Values{}
	if q.Category != "" {
		params.Set("category", string(q.Category))
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	if len(params) == 0 {
		return "/api/traces"
	}
	return "/api/traces?" + params.Encode()
}

// QueryTraces lists traces matching q in the order the store returns them.
func (c *Client) QueryTraces(ctx context.Context, q models.TraceQuery) ([]models.Trace, error) {
	var traces []models.Trace
	if err := c.do(ctx, OpFetchTraces, http.MethodGet, TracesPath(q), nil, &traces); err != nil {
		return nil, err
	}
	return traces, nil
}

// QueryAnalytics fetches the snapshot over the whole trace set.
func (c *Client) QueryAnalytics(ctx context.Context) (*models.Analytics, error) {
	var analytics models.Analytics
	if err := c.do(ctx, OpFetchAnalytics, http.MethodGet, "/api/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// SendChat asks the assistant for a reply to message.
func (c *Client) SendChat(ctx context.Context, message string) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	req := models.ChatRequest{Message: message}
	if err := c.do(ctx, OpChat, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordTrace stores a completed exchange; the store assigns id, category and timestamp.
func (c *Client) RecordTrace(ctx context.Context, in models.TraceCreate) (*models.Trace, error) {
	var trace models.Trace
	if err := c.do(ctx, OpSaveTrace, http.MethodPost, "/api/traces", in, &trace); err != nil {
		return nil, err
	}
	return &trace, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", strings.ToLower(op), err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", strings.ToLower(op), err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(op, &NetworkError{Op: op, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Debug("Failed to drain error response", zap.String("op", op), zap.Error(err))
		}
		return c.fail(op, statusError(op, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(op, &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)})
	}
	return nil
}

func (c *Client) fail(op string, err *NetworkError) error {
	metrics.ClientErrors.WithLabelValues(op).Inc()
	c.logger.Warn("Trace store request failed",
		zap.String("op", op),
		zap.Int("status", err.StatusCode),
		zap.Error(err))
	return err
}
