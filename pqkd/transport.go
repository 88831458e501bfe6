package pqkd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// RawResponse is what a Transport hands back: the status code and the full body.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Transport executes a CallSpec. Implementations only move bytes; status code
// handling and parsing stay in the client.
type Transport interface {
	RoundTrip(ctx context.Context, call *CallSpec) (*RawResponse, error)
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	Client *http.Client
}

// RoundTrip sends the call and reads the whole response body.
func (t *HTTPTransport) RoundTrip(ctx context.Context, call *CallSpec) (*RawResponse, error) {
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	return &RawResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
