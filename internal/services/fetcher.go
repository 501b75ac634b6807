package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultFetchTimeout = 15 * time.Second

// HTTPFetcher implements [Fetcher] over [net/http].
//
// Every call waits on the limiter (when configured) before touching the
// network, bounding our own request rate against each provider.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// FetcherOpts configures an [HTTPFetcher].
type FetcherOpts struct {
	Client  *http.Client  // defaults to a client with a bounded timeout
	Limiter *rate.Limiter // nil disables outbound rate limiting
	Timeout time.Duration // applied when Client is nil
}

// NewHTTPFetcher creates an [HTTPFetcher].
func NewHTTPFetcher(opts FetcherOpts) *HTTPFetcher {
	if opts.Client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		opts.Client = &http.Client{Timeout: timeout}
	}

	return &HTTPFetcher{client: opts.Client, limiter: opts.Limiter}
}

// Fetch performs the described call and classifies the outcome.
//
// A 2xx response returns a [*Response]; any other status returns a
// [*UpstreamError] carrying the status and body; a transport failure returns
// a [*UpstreamError] with StatusCode zero.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Message: err.Error()}
		}
	}

	fullURL := req.URL
	if len(req.Params) > 0 {
		fullURL += "?" + req.Params.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Payload:    payload,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
	}, nil
}
