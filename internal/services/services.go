package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/musij/internal/shared"
)

// Request describes a single outbound API call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Params url.Values
	Body   []byte
}

// Response is the raw result of an upstream call that reached the wire and
// came back with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// UpstreamError is a classified upstream failure.
//
// StatusCode is zero for transport-level failures (timeout, DNS, connection
// refused); otherwise it carries the upstream's HTTP status, with Payload
// holding the error body when one was returned. Callers dispatch on the
// status, so the two cases must stay distinguishable.
type UpstreamError struct {
	StatusCode int
	Payload    []byte
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream unreachable: %s", e.Message)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the upstream said the resource does not exist.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Unwrap maps the failure onto the shared sentinel errors so callers can use
// [errors.Is] without inspecting status codes.
func (e *UpstreamError) Unwrap() error {
	switch {
	case e.StatusCode == 0:
		return shared.ErrServiceUnavailable
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	default:
		return shared.ErrAPIRequest
	}
}

// Fetcher performs a single outbound call to an external API.
//
// Implementations are transport shims: no retries, no response
// interpretation beyond status classification.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}
