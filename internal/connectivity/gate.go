// Package connectivity decides whether the backend is reachable right now.
package connectivity

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 3 * time.Second

// Gate is consulted before every operation that could touch the backend.
type Gate interface {
	Probe(ctx context.Context) bool
}

// HTTPGate probes the backend health endpoint. Every call makes a fresh
// request; results are never cached.
type HTTPGate struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPGate(baseURL string, timeout time.Duration) *HTTPGate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGate{
		url:     strings.TrimRight(baseURL, "/") + "/api/users/health",
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Probe returns true only when the health endpoint answers 2xx within the timeout.
func (g *HTTPGate) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Static always reports the same answer.
type Static bool

func (s Static) Probe(context.Context) bool { return bool(s) }

// Func adapts a function to a Gate.
type Func func(ctx context.Context) bool

func (f Func) Probe(ctx context.Context) bool { return f(ctx) }
