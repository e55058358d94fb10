package client

import (
	"net/http"
	"strconv"
)

// Operation labels used in NetworkError messages and client metrics.
const (
	OpChat           = "Chat"
	OpSaveTrace      = "Save trace"
	OpFetchTraces    = "Fetch traces"
	OpFetchAnalytics = "Fetch analytics"
)

// NetworkError reports a transport failure or a non-success status from the
// trace store. It is the only error kind the client returns for a call that
// reached the network layer.
type NetworkError struct {
	Op         string
	StatusCode int
	Status     string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return e.Op + " failed: " + e.Status
	}
	if e.Err != nil {
		return e.Op + " failed: " + e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *NetworkError) Unwrap() error { return e.Err }

func statusError(op string, code int) *NetworkError {
	text := http.StatusText(code)
	if text == "" {
		text = strconv.Itoa(code)
	}
	return &NetworkError{Op: op, StatusCode: code, Status: text}
}
