// Package backend is the one-shot request/response client for the ground
// station backend's REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/monitoring"
)

// DefaultBaseURL is where the backend listens when not configured.
const DefaultBaseURL = "http://localhost:8000"

// ErrRequestFailed wraps transport and decoding failures.
var ErrRequestFailed = errors.New("request failed")

// RequestError is a non-2xx response.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

// Client issues backend calls. Calls are independent: there is no retry and
// no timeout beyond the context and the wrapped HTTP client.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
	metrics *monitoring.Metrics
}

// NewClient returns a client for baseURL. A nil hc uses http.DefaultClient.
func NewClient(baseURL string, hc httputil.HTTPClient, m *monitoring.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = httputil.NewStandardClient(nil)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, metrics: m}
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a JSON request and decodes the JSON response into out. A nil body
// sends no payload; a nil out discards the response.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrRequestFailed, endpoint, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, endpoint, out)
}

func (c *Client) send(req *http.Request, endpoint string, out interface{}) (err error) {
	label := metricLabel(endpoint)
	defer func() {
		c.metrics.RecordBackendRequest(label, err)
		if err != nil {
			monitoring.Logf("[backend] %s %s: %v", req.Method, endpoint, err)
		}
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrRequestFailed, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequestFailed, endpoint, err)
	}
	return nil
}

// metricLabel drops the query and any trailing identifier segment so the
// label set stays bounded.
func metricLabel(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	if strings.HasPrefix(endpoint, "/api/dsm/export/") {
		return "/api/dsm/export"
	}
	return endpoint
}
