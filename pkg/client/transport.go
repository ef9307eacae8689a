package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Request is a single call made through a Transport.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// Response is what a Transport hands back. Non-2xx statuses are not errors
// at this level.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs requests. Implementations must be safe for concurrent
// use.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Do implements Transport.
func (fn TransportFunc) Do(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}

// HTTPTransport sends requests with net/http, setting JSON headers and an
// X-Request-Id on every call.
type HTTPTransport struct {
	Client *http.Client
	// RequestID generates request ids. Defaults to random UUIDs.
	RequestID func() string
}

// NewHTTPTransport returns a transport whose requests time out after timeout.
// Zero means no timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrTransport, errors.Wrap(err, "build request"))
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if httpReq.Header.Get("X-Request-Id") == "" {
		httpReq.Header.Set("X-Request-Id", t.requestID())
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(urlErr.URL)
		}
		return Response{}, fmt.Errorf("%w: %w", ErrTransport, errors.Wrapf(err, "%s %s", req.Method, redact(req.URL)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrTransport, errors.Wrap(err, "read body"))
	}
	return Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, nil
}

func (t *HTTPTransport) requestID() string {
	if t.RequestID != nil {
		return t.RequestID()
	}
	return uuid.NewString()
}
