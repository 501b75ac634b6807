// package testing contains shared testing utilities
package testing

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/musij/internal/services"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	calls    atomic.Int64
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.calls.Add(1)
	return m.response, m.err
}

// Calls reports how many requests passed through the round tripper.
func (m *MockRoundTripper) Calls() int64 {
	return m.calls.Load()
}

// JSONResponse builds an *http.Response with a JSON string body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// MockFetcher is a test double for [services.Fetcher]. Responses are matched
// on a URL substring, checked in registration order.
type MockFetcher struct {
	routes   []mockRoute
	err      error
	Requests []services.Request
}

type mockRoute struct {
	match    string
	response *services.Response
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Respond registers a canned response for requests whose URL contains match.
func (m *MockFetcher) Respond(match string, status int, body string) *MockFetcher {
	m.routes = append(m.routes, mockRoute{
		match: match,
		response: &services.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       []byte(body),
		},
	})
	return m
}

// Fail makes every fetch return err.
func (m *MockFetcher) Fail(err error) *MockFetcher {
	m.err = err
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, req services.Request) (*services.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.err != nil {
		return nil, m.err
	}
	for _, route := range m.routes {
		if strings.Contains(req.URL, route.match) {
			return route.response, nil
		}
	}
	return nil, &services.UpstreamError{StatusCode: 404, Message: "no mock registered for " + req.URL}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func (f *FCloser) Close() error {
	return nil
}

func MustTempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "musij_test.db")
}
