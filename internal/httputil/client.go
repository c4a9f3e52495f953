// Package httputil provides the HTTP client abstraction used by the backend
// client and the JSON response helpers used by the station API.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// HTTPClient is the part of *http.Client the backend client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient adapts an *http.Client to HTTPClient.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps c, or http.DefaultClient when c is nil. No timeout
// is imposed beyond what c carries.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &StandardClient{Client: c}
}

func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// call is one request seen by MockHTTPClient with its body already drained.
type call struct {
	req  *http.Request
	body string
}

// cannedResponse is a reply registered on MockHTTPClient.
type cannedResponse struct {
	status int
	body   string
	err    error
}

func (c cannedResponse) respond(req *http.Request) (*http.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.status,
		Status:     http.StatusText(c.status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(c.body)),
		Request:    req,
	}, nil
}

// MockHTTPClient stands in for the backend without a network. Each request
// is answered by the first of: DoFunc, DefaultError, the route registered
// for its method and path, the next queued response, an empty 200.
type MockHTTPClient struct {
	DoFunc       func(req *http.Request) (*http.Response, error)
	DefaultError error
	// Routes is keyed by "METHOD /path".
	Routes map[string]cannedResponse

	mu    sync.Mutex
	calls []call
	queue []cannedResponse
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{Routes: make(map[string]cannedResponse)}
}

// AddResponse queues a reply for the next request no route matches.
func (m *MockHTTPClient) AddResponse(statusCode int, body string) *MockHTTPClient {
	m.mu.Lock()
	m.queue = append(m.queue, cannedResponse{status: statusCode, body: body})
	m.mu.Unlock()
	return m
}

// AddErrorResponse queues a transport failure.
func (m *MockHTTPClient) AddErrorResponse(err error) *MockHTTPClient {
	m.mu.Lock()
	m.queue = append(m.queue, cannedResponse{err: err})
	m.mu.Unlock()
	return m
}

// Route answers every method+path request with the same reply until Reset.
func (m *MockHTTPClient) Route(method, path string, statusCode int, body string) *MockHTTPClient {
	m.mu.Lock()
	m.Routes[method+" "+path] = cannedResponse{status: statusCode, body: body}
	m.mu.Unlock()
	return m
}

// Do records req and its body, leaving the body readable again.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.calls = append(m.calls, call{req: req, body: string(body)})
	doFunc, defaultErr := m.DoFunc, m.DefaultError
	reply, routed := m.Routes[req.Method+" "+req.URL.Path]
	if !routed {
		reply = cannedResponse{status: http.StatusOK}
		if len(m.queue) > 0 {
			reply, m.queue = m.queue[0], m.queue[1:]
		}
	}
	m.mu.Unlock()

	switch {
	case doFunc != nil:
		return doFunc(req)
	case defaultErr != nil:
		return nil, defaultErr
	}
	return reply.respond(req)
}

func (m *MockHTTPClient) at(n int) (call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.calls) {
		return call{}, false
	}
	return m.calls[n], true
}

// GetRequest returns the nth recorded request, or nil.
func (m *MockHTTPClient) GetRequest(n int) *http.Request {
	c, _ := m.at(n)
	return c.req
}

// GetBody returns the body of the nth recorded request.
func (m *MockHTTPClient) GetBody(n int) string {
	c, _ := m.at(n)
	return c.body
}

func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset forgets recorded requests, queued replies, routes and overrides.
func (m *MockHTTPClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls, m.queue = nil, nil
	m.Routes = make(map[string]cannedResponse)
	m.DoFunc, m.DefaultError = nil, nil
}
